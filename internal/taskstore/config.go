package taskstore

import "fmt"

// Config holds task-store connection configuration.
type Config struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`

	// Eligibility is an optional CEL expression over a `task` map; tasks the
	// expression rejects are invisible to planning. Empty means all tasks are
	// eligible.
	Eligibility string `yaml:"eligibility"`
}

// DefaultConfig returns the default task-store configuration.
func DefaultConfig() Config {
	return Config{
		URI:        "mongodb://localhost:27017",
		Database:   "optassign",
		Collection: "tasks",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("task store uri cannot be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("task store database cannot be empty")
	}
	if c.Collection == "" {
		return fmt.Errorf("task store collection cannot be empty")
	}
	return nil
}
