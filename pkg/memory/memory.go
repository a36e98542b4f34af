// Package memory manages durable conversation history. A conversation is an
// append-only, per-session message log owned entirely by the store; callers
// re-read it on every request instead of caching, so multiple service
// instances can share one store.
package memory

import (
	"context"
	"errors"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Immutable once written.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	// ErrInvalidConfig indicates a store was constructed without its
	// required options.
	ErrInvalidConfig = errors.New("memory: invalid configuration")

	// ErrInvalidStoreType indicates an unknown store driver.
	ErrInvalidStoreType = errors.New("memory: invalid store type")
)

// Store is the conversation store contract.
//
// Append must be atomic per session: create-if-absent and append are one
// conditional write, so concurrent first messages for the same session
// cannot race. Message order reflects a consistent append order.
type Store interface {
	// Append creates the conversation if absent and appends one message
	// with a fresh timestamp. Storage errors propagate.
	Append(ctx context.Context, sessionID string, role Role, content string) error

	// Recent returns the most recent limit messages in chronological
	// order. A missing conversation yields an empty slice, not an error.
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)

	// Clear deletes the conversation. Clearing a nonexistent session is a
	// no-op.
	Clear(ctx context.Context, sessionID string) error
}
