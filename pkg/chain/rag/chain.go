// Package rag implements the question-answering pipeline: persist the
// question, disambiguate it, retrieve grounding passages, generate an
// answer and persist it. The chain is stateless across requests; all
// conversation state lives in the store.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhristev/cvchat/pkg/memory"
	"github.com/mhristev/cvchat/pkg/provider"
	"github.com/mhristev/cvchat/pkg/retriever"
	"github.com/mhristev/cvchat/pkg/rewriter"
	"github.com/mhristev/cvchat/pkg/template"
)

// FallbackAnswer is returned when retrieval yields no relevant chunks.
const FallbackAnswer = "I couldn't find relevant information in the CV to answer this question."

const answerTemperature = 0.3

// Result is the caller-visible outcome of one pipeline run.
type Result struct {
	Answer string

	// SourcesCount is the number of filtered chunks actually used for
	// grounding, a transparency signal about answer strength.
	SourcesCount int
}

type Chain struct {
	store     memory.Store
	retriever *retriever.Retriever
	rewriter  *rewriter.Rewriter
	completer provider.Completer
	template  *template.Template

	historyLimit int

	logger *slog.Logger
}

type Option func(*Chain)

func WithStore(store memory.Store) Option {
	return func(c *Chain) {
		c.store = store
	}
}

func WithRetriever(r *retriever.Retriever) Option {
	return func(c *Chain) {
		c.retriever = r
	}
}

func WithRewriter(r *rewriter.Rewriter) Option {
	return func(c *Chain) {
		c.rewriter = r
	}
}

func WithCompleter(completer provider.Completer) Option {
	return func(c *Chain) {
		c.completer = completer
	}
}

func WithTemplate(t *template.Template) Option {
	return func(c *Chain) {
		c.template = t
	}
}

// WithHistoryLimit bounds the conversation window read from the store. The
// limit is configuration, never caller-supplied, so prompt size stays
// deterministic.
func WithHistoryLimit(limit int) Option {
	return func(c *Chain) {
		c.historyLimit = limit
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

func New(options ...Option) (*Chain, error) {
	c := &Chain{
		historyLimit: 10,
	}

	for _, option := range options {
		option(c)
	}

	if c.store == nil {
		return nil, errors.New("missing conversation store")
	}

	if c.retriever == nil {
		return nil, errors.New("missing retriever")
	}

	if c.rewriter == nil {
		return nil, errors.New("missing rewriter")
	}

	if c.completer == nil {
		return nil, errors.New("missing completer provider")
	}

	if c.template == nil {
		return nil, errors.New("missing prompt template")
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Answer runs the pipeline for one question. The question is persisted
// before anything else, so it is never lost even when a later step fails;
// the price is a dangling user message when the pipeline errors out.
// Adapter errors are not translated, they surface to the boundary layer.
func (c *Chain) Answer(ctx context.Context, sessionID, question string) (*Result, error) {
	log := c.logger.With("session_id", sessionID)

	if err := c.store.Append(ctx, sessionID, memory.RoleUser, question); err != nil {
		return nil, fmt.Errorf("persist question: %w", err)
	}

	searchQuery := question

	if rewriter.IsVague(question) {
		history, err := c.store.Recent(ctx, sessionID, c.historyLimit)

		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}

		rewritten, err := c.rewriter.Rewrite(ctx, question, history)

		if err != nil {
			return nil, err
		}

		if rewritten != question {
			log.Info("rewrote vague question", "rewritten", rewritten)
		}

		searchQuery = rewritten
	}

	chunks, err := c.retriever.Search(ctx, searchQuery)

	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		log.Info("no relevant chunks, returning fallback answer")

		if err := c.store.Append(ctx, sessionID, memory.RoleAssistant, FallbackAnswer); err != nil {
			return nil, fmt.Errorf("persist fallback answer: %w", err)
		}

		return &Result{
			Answer:       FallbackAnswer,
			SourcesCount: 0,
		}, nil
	}

	history, err := c.store.Recent(ctx, sessionID, c.historyLimit)

	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// The last history entry is the just-appended question; it is excluded
	// and re-added as the final user turn with its original wording. The
	// rewritten query never appears in the generation prompt.
	messages := []provider.Message{
		provider.SystemMessage(c.template.Render(retriever.Context(chunks))),
	}

	if len(history) > 1 {
		for _, m := range history[:len(history)-1] {
			messages = append(messages, provider.Message{
				Role:    provider.Role(m.Role),
				Content: m.Content,
			})
		}
	}

	messages = append(messages, provider.UserMessage(question))

	temperature := answerTemperature

	answer, err := c.completer.Complete(ctx, messages, &provider.CompleteOptions{
		Temperature: &temperature,
	})

	if err != nil {
		return nil, err
	}

	if err := c.store.Append(ctx, sessionID, memory.RoleAssistant, answer); err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}

	log.Info("answered question", "sources_count", len(chunks))

	return &Result{
		Answer:       answer,
		SourcesCount: len(chunks),
	}, nil
}

// Clear deletes the session's conversation. Idempotent.
func (c *Chain) Clear(ctx context.Context, sessionID string) error {
	return c.store.Clear(ctx, sessionID)
}
