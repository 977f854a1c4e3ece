// Package services wires the optassign components together and manages their
// lifecycle.
package services

import (
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/optassign/optassign/internal/config"
	"github.com/optassign/optassign/internal/events"
	"github.com/optassign/optassign/internal/planning"
	"github.com/optassign/optassign/internal/taskstore"
	"github.com/optassign/optassign/internal/userdir"
)

// Manager builds and owns the service components.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	taskStore *taskstore.Store
	userDir   *userdir.Client
	natsConn  *nats.Conn
	publisher events.Publisher
	planning  *planning.Service
}

// NewManager creates a service manager for the given configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "services"),
	}
}

// Planning exposes the planning service, mainly for observability endpoints.
func (m *Manager) Planning() *planning.Service {
	return m.planning
}
