package rag_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhristev/cvchat/pkg/chain/rag"
	"github.com/mhristev/cvchat/pkg/index"
	"github.com/mhristev/cvchat/pkg/memory"
	"github.com/mhristev/cvchat/pkg/provider"
	"github.com/mhristev/cvchat/pkg/retriever"
	"github.com/mhristev/cvchat/pkg/rewriter"
	"github.com/mhristev/cvchat/pkg/template"
)

type fakeCompleter struct {
	calls   [][]provider.Message
	replies []string
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (string, error) {
	f.calls = append(f.calls, messages)

	if f.err != nil {
		return "", f.err
	}

	reply := f.replies[0]

	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}

	return reply, nil
}

type fakeEmbedder struct {
	texts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2}, nil
}

type fakeIndex struct {
	chunks []index.Chunk
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, opts *index.QueryOptions) ([]index.Chunk, error) {
	return f.chunks, nil
}

type fixture struct {
	chain     *rag.Chain
	store     memory.Store
	completer *fakeCompleter
	embedder  *fakeEmbedder
}

func newFixture(t *testing.T, chunks []index.Chunk, replies ...string) *fixture {
	t.Helper()

	store := memory.NewInMemoryStore()
	completer := &fakeCompleter{replies: replies}
	embedder := &fakeEmbedder{}

	ret, err := retriever.New(embedder, &fakeIndex{chunks: chunks}, retriever.Config{
		TopK:        5,
		MaxDistance: 0.7,
	})
	require.NoError(t, err)

	tmpl, err := template.New("Answer about the CV.\n\nCV Context:\n\n{{context}}")
	require.NoError(t, err)

	chain, err := rag.New(
		rag.WithStore(store),
		rag.WithRetriever(ret),
		rag.WithRewriter(rewriter.New(completer)),
		rag.WithCompleter(completer),
		rag.WithTemplate(tmpl),
		rag.WithHistoryLimit(10),
	)
	require.NoError(t, err)

	return &fixture{
		chain:     chain,
		store:     store,
		completer: completer,
		embedder:  embedder,
	}
}

func TestAnswerFreshSessionVagueQuestion(t *testing.T) {
	chunks := []index.Chunk{
		{Section: "experience", Text: "Built services on GCP.", Distance: 0.2},
		{Section: "skills", Text: "AWS, Terraform.", Distance: 0.5},
	}

	f := newFixture(t, chunks, "Martin has used GCP and AWS.")

	result, err := f.chain.Answer(context.Background(), "s1", "What cloud platforms has he used?")
	require.NoError(t, err)

	assert.Equal(t, "Martin has used GCP and AWS.", result.Answer)
	assert.Equal(t, 2, result.SourcesCount)

	// vague question but empty prior history: no rewrite call, so the
	// model was invoked exactly once, for generation
	require.Len(t, f.completer.calls, 1)

	// retrieval used the original question
	require.Len(t, f.embedder.texts, 1)
	assert.Equal(t, "What cloud platforms has he used?", f.embedder.texts[0])

	messages := f.completer.calls[0]
	require.Len(t, messages, 2, "system plus the single user turn")

	assert.Equal(t, provider.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "[experience]: Built services on GCP.")
	assert.Contains(t, messages[0].Content, "[skills]: AWS, Terraform.")

	assert.Equal(t, provider.RoleUser, messages[1].Role)
	assert.Equal(t, "What cloud platforms has he used?", messages[1].Content)

	history, err := f.store.Recent(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, memory.RoleUser, history[0].Role)
	assert.Equal(t, memory.RoleAssistant, history[1].Role)
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	chunks := []index.Chunk{
		{Section: "misc", Text: "irrelevant", Distance: 0.9},
	}

	f := newFixture(t, chunks, "should never be used")

	result, err := f.chain.Answer(context.Background(), "s1", "What is 2+2?")
	require.NoError(t, err)

	assert.Equal(t, rag.FallbackAnswer, result.Answer)
	assert.Equal(t, 0, result.SourcesCount)

	assert.Empty(t, f.completer.calls, "no generation call on empty retrieval")

	history, err := f.store.Recent(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2, "question plus exactly one assistant message")
	assert.Equal(t, rag.FallbackAnswer, history[1].Content)
	assert.Equal(t, memory.RoleAssistant, history[1].Role)
}

func TestAnswerFollowUpRewrite(t *testing.T) {
	chunks := []index.Chunk{
		{Section: "experience", Text: "Most recent role used GCP.", Distance: 0.3},
	}

	rewritten := "Which cloud platform did Martin use most recently?"

	f := newFixture(t, chunks,
		`"`+rewritten+`"`,
		"Most recently Martin worked with GCP.",
	)

	ctx := context.Background()

	require.NoError(t, f.store.Append(ctx, "s1", memory.RoleUser, "What cloud platforms has Martin used?"))
	require.NoError(t, f.store.Append(ctx, "s1", memory.RoleAssistant, "GCP and AWS."))

	question := "And which one more recently?"

	result, err := f.chain.Answer(ctx, "s1", question)
	require.NoError(t, err)

	assert.Equal(t, "Most recently Martin worked with GCP.", result.Answer)
	assert.Equal(t, 1, result.SourcesCount)

	require.Len(t, f.completer.calls, 2, "one rewrite call, one generation call")

	// the rewrite saw the prior turns but not the just-appended question
	rewriteMessages := f.completer.calls[0]
	require.Len(t, rewriteMessages, 4)
	assert.Equal(t, "GCP and AWS.", rewriteMessages[2].Content)

	// retrieval used the rewritten, quote-stripped query
	require.Len(t, f.embedder.texts, 1)
	assert.Equal(t, rewritten, f.embedder.texts[0])

	generation := f.completer.calls[1]
	require.Len(t, generation, 4, "system, two prior turns, original question")

	assert.Equal(t, provider.RoleSystem, generation[0].Role)
	assert.Equal(t, "What cloud platforms has Martin used?", generation[1].Content)
	assert.Equal(t, "GCP and AWS.", generation[2].Content)

	// the original question appears exactly once, as the final user turn;
	// the rewritten query never appears as a conversation turn
	last := generation[len(generation)-1]
	assert.Equal(t, provider.RoleUser, last.Role)
	assert.Equal(t, question, last.Content)

	occurrences := 0

	for _, m := range generation {
		if m.Content == question {
			occurrences++
		}

		if m.Role != provider.RoleSystem {
			assert.NotContains(t, m.Content, rewritten)
		}
	}

	assert.Equal(t, 1, occurrences)
}

func TestAnswerUsesInjectedLogger(t *testing.T) {
	chunks := []index.Chunk{
		{Section: "experience", Text: "Built services on GCP.", Distance: 0.2},
	}

	store := memory.NewInMemoryStore()
	completer := &fakeCompleter{replies: []string{"GCP."}}

	ret, err := retriever.New(&fakeEmbedder{}, &fakeIndex{chunks: chunks}, retriever.Config{MaxDistance: 0.7})
	require.NoError(t, err)

	tmpl, err := template.New("{{context}}")
	require.NoError(t, err)

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "rag")

	chain, err := rag.New(
		rag.WithStore(store),
		rag.WithRetriever(ret),
		rag.WithRewriter(rewriter.New(completer)),
		rag.WithCompleter(completer),
		rag.WithTemplate(tmpl),
		rag.WithLogger(logger),
	)
	require.NoError(t, err)

	_, err = chain.Answer(context.Background(), "s1", "Which cloud platforms appear in recent professional positions?")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "answered question")
	assert.Contains(t, buf.String(), `"component":"rag"`)
	assert.Contains(t, buf.String(), `"session_id":"s1"`)
}

type failingStore struct {
	memory.Store
}

func (f *failingStore) Append(ctx context.Context, sessionID string, role memory.Role, content string) error {
	return errors.New("store unavailable")
}

func TestAnswerStoreFailureAbortsPipeline(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"unused"}}
	embedder := &fakeEmbedder{}

	ret, err := retriever.New(embedder, &fakeIndex{}, retriever.Config{MaxDistance: 0.7})
	require.NoError(t, err)

	tmpl, err := template.New("{{context}}")
	require.NoError(t, err)

	chain, err := rag.New(
		rag.WithStore(&failingStore{memory.NewInMemoryStore()}),
		rag.WithRetriever(ret),
		rag.WithRewriter(rewriter.New(completer)),
		rag.WithCompleter(completer),
		rag.WithTemplate(tmpl),
	)
	require.NoError(t, err)

	_, err = chain.Answer(context.Background(), "s1", "What cloud platforms did Martin use?")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "store unavailable"))
	assert.Empty(t, embedder.texts, "pipeline aborted before retrieval")
	assert.Empty(t, completer.calls)
}

func TestClearDelegatesToStore(t *testing.T) {
	f := newFixture(t, nil, "unused")

	ctx := context.Background()

	require.NoError(t, f.store.Append(ctx, "s1", memory.RoleUser, "hello"))

	require.NoError(t, f.chain.Clear(ctx, "s1"))
	require.NoError(t, f.chain.Clear(ctx, "s1"), "clear is idempotent")

	history, err := f.store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
