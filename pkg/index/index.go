// Package index defines the nearest-neighbor search interface over
// pre-embedded CV chunks. The index itself lives in an external service;
// implementations are read-only.
package index

import "context"

// Chunk is a passage returned by a vector search. Chunks are produced per
// query and never persisted.
type Chunk struct {
	// Section labels the part of the CV the passage came from.
	Section string

	// Text is the passage content.
	Text string

	// Distance is the similarity score between query and chunk embeddings,
	// conventionally in [0,1]. Lower means more similar.
	Distance float32
}

// QueryOptions control a search.
type QueryOptions struct {
	// Limit is the maximum number of results to return.
	Limit int

	// Source restricts results to a single named source document.
	Source string
}

// Provider abstracts an index capable of nearest-neighbor search.
// Results are ordered by ascending distance, best match first.
type Provider interface {
	Query(ctx context.Context, vector []float32, opts *QueryOptions) ([]Chunk, error)
}
