package config

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mhristev/cvchat/pkg/memory"
	memoryredis "github.com/mhristev/cvchat/pkg/memory/redis"
)

type memoryConfig struct {
	// Type selects the store driver: "redis" or "memory" (default).
	Type string `yaml:"type"`

	Address  string `yaml:"address,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`

	// TTL expires idle conversations; empty means they never expire.
	TTL string `yaml:"ttl,omitempty"`

	// HistoryLimit bounds the window read per request.
	HistoryLimit int `yaml:"history_limit,omitempty"`
}

func (c *Config) registerMemory(f *configFile) error {
	cfg := f.Memory

	if cfg.HistoryLimit > 0 {
		c.HistoryLimit = cfg.HistoryLimit
	}

	switch cfg.Type {
	case "", "memory":
		c.Store = memory.NewInMemoryStore()

	case "redis":
		if cfg.Address == "" {
			return fmt.Errorf("memory: redis address is required")
		}

		var ttl time.Duration

		if cfg.TTL != "" {
			parsed, err := time.ParseDuration(cfg.TTL)

			if err != nil {
				return fmt.Errorf("memory: invalid ttl %q: %w", cfg.TTL, err)
			}

			ttl = parsed
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		store, err := memoryredis.New(client, ttl)

		if err != nil {
			return err
		}

		c.Store = store

	default:
		return fmt.Errorf("%w: %s", memory.ErrInvalidStoreType, cfg.Type)
	}

	return nil
}
