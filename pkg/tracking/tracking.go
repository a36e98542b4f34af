// Package tracking persists analytics events. It is independent of the
// question-answering pipeline: one row per call into its own table,
// fire-and-forget from the caller's perspective.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// Event is a user tracking payload sent by the CV site.
type Event struct {
	SessionID string         `json:"session_id,omitempty"`
	EventType string         `json:"event_type"`
	Page      string         `json:"page,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Service struct {
	client *supabase.Client
	table  string
}

func NewService(client *supabase.Client, table string) (*Service, error) {
	if client == nil {
		return nil, errors.New("tracking: missing storage client")
	}

	if table == "" {
		return nil, errors.New("tracking: missing table name")
	}

	return &Service{
		client: client,
		table:  table,
	}, nil
}

type eventRow struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	EventType string         `json:"event_type"`
	Page      string         `json:"page,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SaveEvent persists one event and returns its generated id. Errors
// propagate, matching the pipeline's convention.
func (s *Service) SaveEvent(ctx context.Context, event Event) (string, error) {
	if event.EventType == "" {
		return "", errors.New("tracking: event_type is required")
	}

	row := eventRow{
		ID:        uuid.New().String(),
		SessionID: event.SessionID,
		EventType: event.EventType,
		Page:      event.Page,
		UserAgent: event.UserAgent,
		Referrer:  event.Referrer,
		Metadata:  event.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	if _, _, err := s.client.From(s.table).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return "", fmt.Errorf("tracking: save event: %w", err)
	}

	return row.ID, nil
}
