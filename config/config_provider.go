package config

import (
	"fmt"

	"github.com/mhristev/cvchat/pkg/provider/openai"
)

type openaiConfig struct {
	APIKey string `yaml:"api_key"`

	ChatModel string `yaml:"chat_model"`

	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`

	// Limit is an optional requests-per-second cap on outgoing calls.
	Limit *int `yaml:"limit,omitempty"`
}

func (c *Config) registerProvider(f *configFile) error {
	cfg := f.OpenAI

	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-large"
	}

	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = 3072
	}

	client, err := openai.New(openai.Config{
		APIKey: cfg.APIKey,

		ChatModel: cfg.ChatModel,

		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,

		Limiter: createLimiter(cfg.Limit),
	})

	if err != nil {
		return fmt.Errorf("openai provider: %w", err)
	}

	c.Completer = client
	c.Embedder = client

	return nil
}
