// Package retriever composes embedding generation, nearest-neighbor search
// and relevance filtering into the retrieval step of the pipeline.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mhristev/cvchat/pkg/index"
	"github.com/mhristev/cvchat/pkg/provider"
)

type Config struct {
	// TopK is the number of chunks requested from the index.
	TopK int

	// MaxDistance drops any chunk whose distance exceeds it. This is the
	// sole relevance gate and is applied client-side after search, so the
	// threshold policy stays independent of the index's query language.
	MaxDistance float32

	// Source restricts search to a single named source document.
	Source string
}

type Retriever struct {
	embedder provider.Embedder
	index    index.Provider

	topK        int
	maxDistance float32
	source      string
}

func New(embedder provider.Embedder, idx index.Provider, cfg Config) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever: missing embedder")
	}

	if idx == nil {
		return nil, errors.New("retriever: missing index provider")
	}

	topK := cfg.TopK

	if topK <= 0 {
		topK = 5
	}

	maxDistance := cfg.MaxDistance

	if maxDistance <= 0 {
		maxDistance = 0.7
	}

	return &Retriever{
		embedder: embedder,
		index:    idx,

		topK:        topK,
		maxDistance: maxDistance,
		source:      cfg.Source,
	}, nil
}

// Search embeds the question, searches the index and drops chunks beyond the
// distance threshold. An empty result means no relevant knowledge was found;
// it is not an error.
func (r *Retriever) Search(ctx context.Context, question string) ([]index.Chunk, error) {
	vector, err := r.embedder.Embed(ctx, question)

	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}

	chunks, err := r.index.Query(ctx, vector, &index.QueryOptions{
		Limit:  r.topK,
		Source: r.source,
	})

	if err != nil {
		return nil, fmt.Errorf("retriever: search: %w", err)
	}

	relevant := make([]index.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		if chunk.Distance > r.maxDistance {
			continue
		}

		relevant = append(relevant, chunk)
	}

	return relevant, nil
}

// Context renders chunks into a single grounding blob, one "[section]: text"
// block per chunk in search order, separated by blank lines. Empty input
// yields an empty string, the sentinel for "no grounding available".
func Context(chunks []index.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		section := chunk.Section

		if section == "" {
			section = "unknown"
		}

		parts = append(parts, fmt.Sprintf("[%s]: %s", section, chunk.Text))
	}

	return strings.Join(parts, "\n\n")
}
