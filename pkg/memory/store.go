package memory

import (
	"context"
	"sync"
	"time"
)

// inMemoryStore keeps conversations in a process-local map. Used for tests
// and local development.
type inMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

type conversation struct {
	createdAt time.Time
	updatedAt time.Time
	messages  []Message
}

// NewInMemoryStore creates a Store backed by a process-local map.
func NewInMemoryStore() Store {
	return &inMemoryStore{
		conversations: make(map[string]*conversation),
	}
}

func (s *inMemoryStore) Append(ctx context.Context, sessionID string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	conv, ok := s.conversations[sessionID]

	if !ok {
		conv = &conversation{createdAt: now}
		s.conversations[sessionID] = conv
	}

	conv.updatedAt = now

	conv.messages = append(conv.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})

	return nil
}

func (s *inMemoryStore) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[sessionID]

	if !ok {
		return []Message{}, nil
	}

	messages := conv.messages

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	result := make([]Message, len(messages))
	copy(result, messages)

	return result, nil
}

func (s *inMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, sessionID)
	return nil
}
