package config

import (
	"fmt"

	"github.com/mhristev/cvchat/pkg/index/qdrant"
)

type indexConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	APIKey     string `yaml:"api_key,omitempty"`
}

func (c *Config) registerIndex(f *configFile) error {
	cfg := f.Index

	if cfg.Collection == "" {
		cfg.Collection = "cv_chunks"
	}

	client, err := qdrant.New(qdrant.Config{
		URL:        cfg.URL,
		Collection: cfg.Collection,
		APIKey:     cfg.APIKey,
	})

	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	c.Index = client

	return nil
}
