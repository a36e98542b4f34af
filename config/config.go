// Package config loads the application configuration from a YAML file,
// expands environment variables, and constructs the live service handles
// the server runs on. Construction happens once at startup; the handles
// are immutable afterwards and shared across requests.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/mhristev/cvchat/pkg/chain/rag"
	"github.com/mhristev/cvchat/pkg/contact"
	"github.com/mhristev/cvchat/pkg/index"
	"github.com/mhristev/cvchat/pkg/memory"
	"github.com/mhristev/cvchat/pkg/provider"
	"github.com/mhristev/cvchat/pkg/retriever"
	"github.com/mhristev/cvchat/pkg/rewriter"
	"github.com/mhristev/cvchat/pkg/template"
	"github.com/mhristev/cvchat/pkg/tracking"
)

type Config struct {
	Address string

	AppName string
	Version string

	HistoryLimit int

	Completer provider.Completer
	Embedder  provider.Embedder

	Index index.Provider
	Store memory.Store

	Template *template.Template

	Chain *rag.Chain

	Tracking *tracking.Service
	Contact  *contact.Service
}

func Parse(path string, logger *slog.Logger) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	c := &Config{
		Address: ":8080",

		AppName: "cvchat",
		Version: "1.0.0",

		HistoryLimit: 10,
	}

	if file.App.Name != "" {
		c.AppName = file.App.Name
	}

	if file.App.Version != "" {
		c.Version = file.App.Version
	}

	if err := c.registerProvider(file); err != nil {
		return nil, err
	}

	if err := c.registerIndex(file); err != nil {
		return nil, err
	}

	if err := c.registerMemory(file); err != nil {
		return nil, err
	}

	if err := c.registerStorage(file); err != nil {
		return nil, err
	}

	if err := c.registerTemplate(file); err != nil {
		return nil, err
	}

	ret, err := retriever.New(c.Embedder, c.Index, retriever.Config{
		TopK:        file.Retrieval.TopK,
		MaxDistance: file.Retrieval.MaxDistance,
		Source:      file.Retrieval.Source,
	})

	if err != nil {
		return nil, err
	}

	c.Chain, err = rag.New(
		rag.WithStore(c.Store),
		rag.WithRetriever(ret),
		rag.WithRewriter(rewriter.New(c.Completer)),
		rag.WithCompleter(c.Completer),
		rag.WithTemplate(c.Template),
		rag.WithHistoryLimit(c.HistoryLimit),
		rag.WithLogger(logger.With("component", "rag")),
	)

	if err != nil {
		return nil, fmt.Errorf("build chain: %w", err)
	}

	return c, nil
}

type configFile struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	OpenAI openaiConfig `yaml:"openai"`

	Index indexConfig `yaml:"index"`

	Retrieval struct {
		TopK        int     `yaml:"top_k"`
		MaxDistance float32 `yaml:"max_distance"`
		Source      string  `yaml:"source"`
	} `yaml:"retrieval"`

	Memory memoryConfig `yaml:"memory"`

	Storage storageConfig `yaml:"storage"`

	Prompt struct {
		TemplatePath string `yaml:"template_path"`
	} `yaml:"prompt"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var file configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

func (c *Config) registerTemplate(f *configFile) error {
	if f.Prompt.TemplatePath == "" {
		t, err := template.New(template.Default)

		if err != nil {
			return err
		}

		c.Template = t
		return nil
	}

	t, err := template.NewFromFile(f.Prompt.TemplatePath)

	if err != nil {
		return err
	}

	c.Template = t
	return nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
