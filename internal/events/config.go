package events

import "fmt"

// Config holds change-event stream configuration.
type Config struct {
	// Enabled toggles publishing; when false the service runs without a
	// NATS connection and change sets are applied silently.
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
}

// DefaultConfig returns the default events configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		URL:     "nats://localhost:4222",
		Stream:  "planning",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("events url cannot be empty when enabled")
	}
	if c.Stream == "" {
		return fmt.Errorf("events stream cannot be empty when enabled")
	}
	return nil
}
