package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/optassign/optassign/internal/events"
	"github.com/optassign/optassign/internal/planning"
	"github.com/optassign/optassign/internal/taskstore"
	"github.com/optassign/optassign/internal/userdir"
)

// Config holds the application configuration.
type Config struct {
	Logging         LoggingConfig    `yaml:"logging"`
	Planning        planning.Config  `yaml:"planning"`
	TaskStore       taskstore.Config `yaml:"task_store"`
	WorkerDirectory userdir.Config   `yaml:"worker_directory"`
	Events          events.Config    `yaml:"events"`
}

// LoadConfig loads configuration from files.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults -> Validate.
func LoadConfig(configDir string) (*Config, error) {
	cfg := &Config{
		Logging:         DefaultLoggingConfig(),
		Planning:        planning.DefaultConfig(),
		TaskStore:       taskstore.DefaultConfig(),
		WorkerDirectory: userdir.DefaultConfig(),
		Events:          events.DefaultConfig(),
	}

	if err := loadFile(configDir+"/config.yml", cfg); err != nil {
		return nil, err
	}
	if err := loadFile(configDir+"/config.local.yml", cfg); err != nil {
		return nil, err
	}

	cfg.Logging.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Planning.Validate(); err != nil {
		return err
	}
	if err := c.TaskStore.Validate(); err != nil {
		return err
	}
	if err := c.WorkerDirectory.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, skip
		}
		return fmt.Errorf("error reading %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return nil
}
