// Package userdir queries the external worker-directory service for the
// workers eligible for task assignment.
package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/optassign/optassign/pkg/model"
)

// Client implements planning.WorkerDirectory against the directory's REST API.
// Each request carries a freshly minted short-lived HS256 service token.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a worker-directory client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "userdir"),
	}, nil
}

// ListAllWorkers fetches the full worker directory.
func (c *Client) ListAllWorkers(ctx context.Context) ([]*model.Worker, error) {
	token, err := c.mintToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint service token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/workers", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worker directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("worker directory returned %d: %s", resp.StatusCode, body)
	}

	var workers []*model.Worker
	if err := json.NewDecoder(resp.Body).Decode(&workers); err != nil {
		return nil, fmt.Errorf("failed to decode worker list: %w", err)
	}
	c.logger.Debug("worker directory fetched", "workers", len(workers))
	return workers, nil
}

func (c *Client) mintToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.cfg.Issuer,
		Subject:   "optassign-planning",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.Secret))
}
