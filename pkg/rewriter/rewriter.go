// Package rewriter decides whether a question depends on conversation
// context and, if so, rewrites it into a standalone form. The rewrite steers
// retrieval only; the generation step always sees the user's original
// phrasing.
package rewriter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mhristev/cvchat/pkg/memory"
	"github.com/mhristev/cvchat/pkg/provider"
)

// vagueMarkers are anaphoric and ellipsis markers matched as raw substrings
// of the lowercased question. Substring matching over-triggers inside longer
// words and the lexicon is English-only; both are known limitations of the
// heuristic and are kept as-is.
var vagueMarkers = []string{
	"it", "that", "this", "one", "which one",
	"them", "those", "he", "she", "they",
	"more", "else", "also", "there",
}

// minTokens is the token count below which a question is always considered
// vague.
const minTokens = 5

const systemInstruction = `You are a query rewriting assistant.
Rewrite vague follow-up questions into clear, standalone questions using conversation history.
Only output the rewritten question, nothing else.`

const rewriteTemperature = 0.3

// IsVague reports whether a question needs history-aware disambiguation
// before retrieval.
func IsVague(question string) bool {
	lower := strings.ToLower(question)

	for _, marker := range vagueMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return len(strings.Fields(question)) < minTokens
}

type Rewriter struct {
	completer provider.Completer
}

func New(completer provider.Completer) *Rewriter {
	return &Rewriter{completer: completer}
}

// Rewrite turns a vague question into a standalone one using the retrieved
// history. The history is read after the question was persisted, so its most
// recent entry is the question itself; that entry is dropped so it is not
// quoted back. When nothing precedes the question there is no context to
// rewrite against and the question is returned unchanged without calling the
// model. A failed rewrite propagates: a broken rewrite must not feed into
// retrieval.
func (r *Rewriter) Rewrite(ctx context.Context, question string, history []memory.Message) (string, error) {
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	if len(history) == 0 {
		return question, nil
	}

	messages := []provider.Message{
		provider.SystemMessage(systemInstruction),
	}

	for _, m := range history {
		messages = append(messages, provider.Message{
			Role:    provider.Role(m.Role),
			Content: m.Content,
		})
	}

	messages = append(messages, provider.UserMessage(
		fmt.Sprintf("Rewrite this vague question into a clear, standalone question: '%s'", question),
	))

	temperature := rewriteTemperature

	rewritten, err := r.completer.Complete(ctx, messages, &provider.CompleteOptions{
		Temperature: &temperature,
	})

	if err != nil {
		return "", fmt.Errorf("rewriter: %w", err)
	}

	return stripQuotes(strings.TrimSpace(rewritten)), nil
}

// stripQuotes removes one matching layer of surrounding quote characters.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]

		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}
