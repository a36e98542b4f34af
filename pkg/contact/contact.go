// Package contact persists contact-style questions from the CV site.
//
// Unlike the pipeline and tracking paths, this path reports failures as a
// tagged result value instead of a Go error. The two conventions map to
// different external contracts at the boundary and are deliberately not
// unified.
package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
)

// Question is a contact-form payload.
type Question struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the tagged outcome of a save. Exactly one of Question or Message
// is meaningful depending on Status.
type Result struct {
	Status   Status
	Question Question
	Message  string
}

type Service struct {
	client *supabase.Client
	table  string
}

func NewService(client *supabase.Client, table string) *Service {
	return &Service{
		client: client,
		table:  table,
	}
}

type questionRow struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveQuestion persists one question. Never returns a Go error; failures are
// reported through the result tag.
func (s *Service) SaveQuestion(ctx context.Context, question Question) Result {
	if s.client == nil {
		return Result{
			Status:  StatusError,
			Message: "contact: storage client not configured",
		}
	}

	row := questionRow{
		Name:      question.Name,
		Email:     question.Email,
		Message:   question.Message,
		CreatedAt: time.Now().UTC(),
	}

	if _, _, err := s.client.From(s.table).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("failed to save user question: %v", err),
		}
	}

	return Result{
		Status:   StatusSuccess,
		Question: question,
	}
}
