package config

import (
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/mhristev/cvchat/pkg/contact"
	"github.com/mhristev/cvchat/pkg/tracking"
)

type storageConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`

	TrackingTable  string `yaml:"tracking_table,omitempty"`
	QuestionsTable string `yaml:"questions_table,omitempty"`
}

// registerStorage wires the tracking and contact tables. The section is
// optional: without it the chat pipeline still runs and the tracking and
// contact endpoints report their respective error conventions.
func (c *Config) registerStorage(f *configFile) error {
	cfg := f.Storage

	if cfg.URL == "" {
		c.Contact = contact.NewService(nil, "")
		return nil
	}

	if cfg.TrackingTable == "" {
		cfg.TrackingTable = "user_tracking"
	}

	if cfg.QuestionsTable == "" {
		cfg.QuestionsTable = "user_questions"
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)

	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	c.Tracking, err = tracking.NewService(client, cfg.TrackingTable)

	if err != nil {
		return err
	}

	c.Contact = contact.NewService(client, cfg.QuestionsTable)

	return nil
}
