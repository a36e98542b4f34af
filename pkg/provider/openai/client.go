// Package openai adapts the OpenAI SDK to the provider interfaces.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/mhristev/cvchat/pkg/provider"
)

type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// ChatModel is the chat-completion model identifier, e.g. "gpt-4o-mini".
	ChatModel string

	// EmbeddingModel is the embedding model identifier, e.g. "text-embedding-3-large".
	EmbeddingModel string

	// EmbeddingDimensions is the expected vector dimensionality.
	EmbeddingDimensions int

	// Limiter optionally throttles outgoing calls.
	Limiter *rate.Limiter
}

// Client implements provider.Completer and provider.Embedder using a single
// shared SDK client, constructed once at startup and reused across requests.
type Client struct {
	client openai.Client

	chatModel           string
	embeddingModel      string
	embeddingDimensions int

	limiter *rate.Limiter
}

var (
	_ provider.Completer = (*Client)(nil)
	_ provider.Embedder  = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	if cfg.ChatModel == "" || cfg.EmbeddingModel == "" {
		return nil, errors.New("openai: chat and embedding models are required")
	}

	return &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),

		chatModel:           cfg.ChatModel,
		embeddingModel:      cfg.EmbeddingModel,
		embeddingDimensions: cfg.EmbeddingDimensions,

		limiter: cfg.Limiter,
	}, nil
}

func (c *Client) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (string, error) {
	if options == nil {
		options = new(provider.CompleteOptions)
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.chatModel),
		Messages: convertMessages(messages),
	}

	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)

	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("openai: chat completion returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),

		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}

	if c.embeddingDimensions > 0 {
		params.Dimensions = openai.Int(int64(c.embeddingDimensions))
	}

	result, err := c.client.Embeddings.New(ctx, params)

	if err != nil {
		return nil, fmt.Errorf("openai: embedding: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, errors.New("openai: embedding returned no data")
	}

	embedding := make([]float32, len(result.Data[0].Embedding))

	for i, v := range result.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}

	return c.limiter.Wait(ctx)
}

func convertMessages(messages []provider.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))

		case provider.RoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))

		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}

	return result
}
