package planning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/optassign/optassign/internal/events"
	"github.com/optassign/optassign/internal/solver"
	"github.com/optassign/optassign/pkg/model"
)

// Service owns the planning control loop: the solving engine executor, the
// synchronizer and the watermark tracker. It bootstraps the engine on start,
// feeds detected task changes into the running engine, announces applied
// change sets on the event stream and keeps incremental sync polling.
type Service struct {
	cfg          Config
	logger       *slog.Logger
	tracker      *WatermarkTracker
	executor     *solver.Executor
	synchronizer *Synchronizer
	publisher    events.Publisher

	mu       sync.Mutex
	solution *model.Solution
}

// NewService wires the planning service around the given collaborators.
func NewService(
	cfg Config,
	slv solver.Solver,
	tasks TaskSource,
	workers WorkerDirectory,
	builder SolutionBuilder,
	changes ChangeSetBuilder,
	publisher events.Publisher,
	logger *slog.Logger,
) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:       cfg,
		logger:    logger.With("component", "planning"),
		tracker:   NewWatermarkTracker(cfg.MinBoundaryDistance),
		publisher: publisher,
	}
	s.executor = solver.NewExecutor(slv, s.onBestSolution, logger)

	syn, err := NewSynchronizer(s.executor, tasks, workers, builder, changes, s.tracker, cfg, s.onChanges, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create synchronizer: %w", err)
	}
	s.synchronizer = syn
	return s, nil
}

// Tracker exposes the watermark tracker, mainly for observability.
func (s *Service) Tracker() *WatermarkTracker {
	return s.tracker
}

// Solution returns the most recent best solution, or nil before the first
// solver result.
func (s *Service) Solution() *model.Solution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solution
}

// Start launches the synchronizer worker and triggers the initial bootstrap.
func (s *Service) Start(ctx context.Context) error {
	if err := s.synchronizer.Start(ctx); err != nil {
		return err
	}
	if err := s.synchronizer.TriggerBootstrap(); err != nil {
		return err
	}
	s.logger.Info("planning service started")
	return nil
}

// Stop destroys the synchronizer and the solver executor, waiting for both
// workers to exit or ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.synchronizer.Destroy()
	s.executor.Destroy()

	done := make(chan struct{})
	go func() {
		s.synchronizer.Wait()
		s.executor.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("planning service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onBestSolution receives each improved solution from the solver. The engine
// emits one right after starting and after every applied change batch; either
// way the solution is settled, so polling resumes with the next pending
// watermark boundary.
func (s *Service) onBestSolution(sol *model.Solution) {
	s.mu.Lock()
	s.solution = sol
	s.mu.Unlock()

	from, err := s.tracker.DequeueNext()
	if err != nil {
		// Queue is owned by a polling synchronizer right now; it will keep
		// advancing the watermark on its own.
		return
	}

	// The synchronizer flips back to idle moments after handing over a change
	// set; a short grace period covers that handover window.
	for i := 0; i < 20; i++ {
		err = s.synchronizer.TriggerIncrementalSync(sol, from)
		if err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.tracker.Enqueue(from)
	s.logger.Warn("could not resume incremental sync, boundary re-queued", "from", from, "error", err)
}

// onChanges is the synchronizer's result sink: forward the change set to the
// running engine and announce it on the event stream. The engine answers with
// a new best solution, which resumes polling via onBestSolution.
func (s *Service) onChanges(cs model.ChangeSet) {
	if !s.executor.AddProblemChanges(cs.Ops) {
		s.logger.Warn("solver not running, change set dropped", "ops", len(cs.Ops))
		return
	}

	if s.publisher == nil {
		return
	}
	ev := events.NewChangeEvent(cs)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := events.PublishChangeEvent(ctx, s.publisher, s.cfg.ChangesSubject, ev); err != nil {
		s.logger.Error("failed to publish change event", "error", err)
	}
}
