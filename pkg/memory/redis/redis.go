// Package redis implements the conversation store on Redis. Each session
// maps to a list of JSON-encoded messages plus a small metadata hash.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mhristev/cvchat/pkg/memory"
)

const keyPrefix = "conversation:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ memory.Store = (*Store)(nil)

// New creates a Redis-backed conversation store. A zero ttl means
// conversations never expire.
func New(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, memory.ErrInvalidConfig
	}

	return &Store{
		client: client,
		ttl:    ttl,
	}, nil
}

// Append implements memory.Store. The message push and the metadata writes
// run inside one MULTI/EXEC transaction, so create-if-absent and append are
// a single atomic write per session. HSETNX seeds created_at only for the
// first message.
func (s *Store) Append(ctx context.Context, sessionID string, role memory.Role, content string) error {
	now := time.Now()

	message := memory.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	}

	data, err := json.Marshal(message)

	if err != nil {
		return fmt.Errorf("redis: marshal message: %w", err)
	}

	listKey := s.listKey(sessionID)
	metaKey := s.metaKey(sessionID)

	timestamp := now.Format(time.RFC3339Nano)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, listKey, data)
		pipe.HSetNX(ctx, metaKey, "created_at", timestamp)
		pipe.HSet(ctx, metaKey, "updated_at", timestamp)

		if s.ttl > 0 {
			pipe.Expire(ctx, listKey, s.ttl)
			pipe.Expire(ctx, metaKey, s.ttl)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("redis: append message: %w", err)
	}

	return nil
}

// Recent implements memory.Store. LRANGE with a negative start yields the
// list tail already in chronological order.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]memory.Message, error) {
	start := int64(0)

	if limit > 0 {
		start = -int64(limit)
	}

	values, err := s.client.LRange(ctx, s.listKey(sessionID), start, -1).Result()

	if err != nil {
		return nil, fmt.Errorf("redis: read history: %w", err)
	}

	messages := make([]memory.Message, 0, len(values))

	for _, value := range values {
		var message memory.Message

		if err := json.Unmarshal([]byte(value), &message); err != nil {
			return nil, fmt.Errorf("redis: decode message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

// Clear implements memory.Store. DEL on missing keys is a no-op, which makes
// clearing idempotent.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.listKey(sessionID), s.metaKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis: clear conversation: %w", err)
	}

	return nil
}

func (s *Store) listKey(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *Store) metaKey(sessionID string) string {
	return keyPrefix + sessionID + ":meta"
}
