// Package qdrant implements the index provider against a Qdrant collection.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/mhristev/cvchat/pkg/index"
)

type Config struct {
	// URL is the Qdrant server address, e.g. "https://example.qdrant.io:6334".
	URL string

	// Collection is the collection holding the CV chunks.
	Collection string

	// APIKey is an optional API key.
	APIKey string
}

type Client struct {
	client     *qdrant.Client
	collection string
}

var _ index.Provider = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: url is required")
	}

	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection is required")
	}

	address := cfg.URL

	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "https://" + address
	}

	u, err := url.Parse(address)

	if err != nil {
		return nil, fmt.Errorf("qdrant: parse url: %w", err)
	}

	port := 6334

	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())

		if err != nil {
			return nil, fmt.Errorf("qdrant: invalid port: %w", err)
		}

		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})

	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}

	return &Client{
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// Query implements index.Provider. Qdrant scores by similarity (higher is
// better); results are converted to the distance convention (lower is better)
// as 1 - score, which preserves the ranking order.
func (c *Client) Query(ctx context.Context, vector []float32, opts *index.QueryOptions) ([]index.Chunk, error) {
	if opts == nil {
		opts = new(index.QueryOptions)
	}

	query := &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         sourceFilter(opts.Source),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if opts.Limit > 0 {
		limit := uint64(opts.Limit)
		query.Limit = &limit
	}

	points, err := c.client.Query(ctx, query)

	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	chunks := make([]index.Chunk, 0, len(points))

	for _, point := range points {
		chunk := index.Chunk{
			Distance: 1 - point.Score,
		}

		for key, value := range point.Payload {
			switch key {
			case "section":
				chunk.Section = value.GetStringValue()
			case "text":
				chunk.Text = value.GetStringValue()
			}
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func sourceFilter(source string) *qdrant.Filter {
	if source == "" {
		return nil
	}

	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "source",

						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: source},
						},
					},
				},
			},
		},
	}
}
