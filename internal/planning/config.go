package planning

import (
	"fmt"
	"time"
)

// Config holds planning service configuration.
type Config struct {
	// SyncInterval is the pause between retries of a synchronization step.
	SyncInterval time.Duration `yaml:"sync_interval"`

	// MinBoundaryDistance is the minimum spacing between two watermark
	// boundaries. It must cover the timestamp resolution of the task store so
	// truncated server timestamps cannot produce a zero-width window.
	MinBoundaryDistance time.Duration `yaml:"min_boundary_distance"`

	// BootstrapSafetyMargin is subtracted from the bootstrap query timestamp
	// when anchoring the first window, tolerating clock skew and writes
	// committed just before the query.
	BootstrapSafetyMargin time.Duration `yaml:"bootstrap_safety_margin"`

	// ChangesSubject is the pub/sub subject applied change sets are announced on.
	ChangesSubject string `yaml:"changes_subject"`
}

// DefaultConfig returns the default planning configuration.
func DefaultConfig() Config {
	return Config{
		SyncInterval:          2 * time.Second,
		MinBoundaryDistance:   2 * time.Second,
		BootstrapSafetyMargin: time.Hour,
		ChangesSubject:        "planning.changes",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %s", c.SyncInterval)
	}
	if c.MinBoundaryDistance < 0 {
		return fmt.Errorf("min_boundary_distance cannot be negative, got %s", c.MinBoundaryDistance)
	}
	if c.BootstrapSafetyMargin < 0 {
		return fmt.Errorf("bootstrap_safety_margin cannot be negative, got %s", c.BootstrapSafetyMargin)
	}
	return nil
}
