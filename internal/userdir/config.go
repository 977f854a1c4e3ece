package userdir

import (
	"fmt"
	"time"
)

// Config holds worker-directory client configuration.
type Config struct {
	BaseURL string `yaml:"base_url"`

	// Secret signs the short-lived service tokens sent with each request.
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default worker-directory configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8091",
		Issuer:   "optassign",
		TokenTTL: time.Minute,
		Timeout:  10 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("worker directory base_url cannot be empty")
	}
	if c.Secret == "" {
		return fmt.Errorf("worker directory secret cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("worker directory token_ttl must be positive, got %s", c.TokenTTL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("worker directory timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
