package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhristev/cvchat/pkg/index"
	"github.com/mhristev/cvchat/pkg/retriever"
)

type fakeEmbedder struct {
	texts  []string
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)

	if f.err != nil {
		return nil, f.err
	}

	return f.vector, nil
}

type fakeIndex struct {
	chunks []index.Chunk
	opts   *index.QueryOptions
	err    error
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, opts *index.QueryOptions) ([]index.Chunk, error) {
	f.opts = opts

	if f.err != nil {
		return nil, f.err
	}

	return f.chunks, nil
}

func TestSearchFiltersByDistance(t *testing.T) {
	idx := &fakeIndex{
		chunks: []index.Chunk{
			{Section: "experience", Text: "GCP projects", Distance: 0.2},
			{Section: "skills", Text: "AWS", Distance: 0.5},
			{Section: "education", Text: "BSc", Distance: 0.7},
			{Section: "hobbies", Text: "chess", Distance: 0.71},
			{Section: "misc", Text: "noise", Distance: 0.95},
		},
	}

	r, err := retriever.New(&fakeEmbedder{vector: []float32{0.1}}, idx, retriever.Config{
		TopK:        5,
		MaxDistance: 0.7,
		Source:      "MH_CV.pdf",
	})
	require.NoError(t, err)

	chunks, err := r.Search(context.Background(), "What cloud platforms did Martin use?")

	require.NoError(t, err)
	require.Len(t, chunks, 3, "chunks beyond the threshold are dropped; the boundary value is kept")

	// search order preserved, best match first
	assert.Equal(t, "experience", chunks[0].Section)
	assert.Equal(t, "skills", chunks[1].Section)
	assert.Equal(t, "education", chunks[2].Section)

	require.NotNil(t, idx.opts)
	assert.Equal(t, 5, idx.opts.Limit)
	assert.Equal(t, "MH_CV.pdf", idx.opts.Source)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	idx := &fakeIndex{
		chunks: []index.Chunk{
			{Section: "misc", Text: "noise", Distance: 0.9},
		},
	}

	r, err := retriever.New(&fakeEmbedder{vector: []float32{0.1}}, idx, retriever.Config{
		MaxDistance: 0.7,
	})
	require.NoError(t, err)

	chunks, err := r.Search(context.Background(), "What is 2+2?")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSearchPropagatesEmbedError(t *testing.T) {
	r, err := retriever.New(&fakeEmbedder{err: errors.New("provider down")}, &fakeIndex{}, retriever.Config{})
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestContext(t *testing.T) {
	chunks := []index.Chunk{
		{Section: "experience", Text: "Worked with GCP."},
		{Section: "", Text: "Unlabeled passage."},
	}

	got := retriever.Context(chunks)

	assert.Equal(t, "[experience]: Worked with GCP.\n\n[unknown]: Unlabeled passage.", got)
}

func TestContextEmpty(t *testing.T) {
	assert.Equal(t, "", retriever.Context(nil))
	assert.Equal(t, "", retriever.Context([]index.Chunk{}))
}
