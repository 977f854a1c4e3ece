package services

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/optassign/optassign/internal/events"
	"github.com/optassign/optassign/internal/planning"
	"github.com/optassign/optassign/internal/solution"
	"github.com/optassign/optassign/internal/solver"
	"github.com/optassign/optassign/internal/taskstore"
	"github.com/optassign/optassign/internal/userdir"
)

// Init connects external systems and builds the planning service. Must be
// called before Start.
func (m *Manager) Init(ctx context.Context) error {
	store, err := taskstore.New(ctx, m.cfg.TaskStore, m.logger)
	if err != nil {
		return fmt.Errorf("failed to init task store: %w", err)
	}
	m.taskStore = store

	dir, err := userdir.NewClient(m.cfg.WorkerDirectory, m.logger)
	if err != nil {
		return fmt.Errorf("failed to init worker directory client: %w", err)
	}
	m.userDir = dir

	if m.cfg.Events.Enabled {
		nc, err := nats.Connect(m.cfg.Events.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		m.natsConn = nc

		pub, err := events.NewJetStreamPublisher(nc, m.cfg.Events.Stream)
		if err != nil {
			return fmt.Errorf("failed to init change-event publisher: %w", err)
		}
		m.publisher = pub
	}

	svc, err := planning.NewService(
		m.cfg.Planning,
		solver.NewGreedy(m.logger),
		m.taskStore,
		m.userDir,
		solution.NewBuilder(m.logger),
		solution.NewChangesBuilder(m.logger),
		m.publisher,
		m.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to init planning service: %w", err)
	}
	m.planning = svc

	m.logger.Info("services initialized", "events_enabled", m.cfg.Events.Enabled)
	return nil
}
