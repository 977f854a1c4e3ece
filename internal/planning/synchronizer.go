package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/optassign/optassign/pkg/model"
)

// ErrNotIdle is returned by trigger methods invoked while a mode is already in
// flight. Triggering a running synchronizer is a caller contract violation; it
// never queues.
var ErrNotIdle = errors.New("synchronizer is not idle")

// syncMode identifies the work the synchronizer worker performs next.
type syncMode int32

const (
	modeNone syncMode = iota
	modeBootstrap
	modeIncremental
)

func (m syncMode) String() string {
	switch m {
	case modeBootstrap:
		return "bootstrap"
	case modeIncremental:
		return "incremental"
	}
	return "none"
}

// Synchronizer keeps the solving engine's working solution in sync with the
// external task store. It is a single-worker state machine alternating between
// two modes: bootstrap, which recovers a full solution and (re)starts the
// engine, and incremental sync, which polls for task changes since the last
// watermark and forwards them to the result sink. Transient failures are
// retried on the sync interval indefinitely; the watermark only ever moves
// forward.
type Synchronizer struct {
	*runnableBase

	executor SolverExecutor
	tasks    TaskSource
	workers  WorkerDirectory
	builder  SolutionBuilder
	changes  ChangeSetBuilder
	tracker  *WatermarkTracker
	sink     ResultSink
	cfg      Config
	logger   *slog.Logger

	mode   atomic.Int32
	wakeCh chan struct{}

	// Pending sync context, owned by the worker while a mode is in flight and
	// written by triggers only after a successful idle->running transition.
	solution *model.Solution
	from     time.Time

	solverStarts int
	started      atomic.Bool
	wg           sync.WaitGroup
}

// NewSynchronizer wires a synchronizer. All collaborators are required.
func NewSynchronizer(
	executor SolverExecutor,
	tasks TaskSource,
	workers WorkerDirectory,
	builder SolutionBuilder,
	changes ChangeSetBuilder,
	tracker *WatermarkTracker,
	cfg Config,
	sink ResultSink,
	logger *slog.Logger,
) (*Synchronizer, error) {
	if executor == nil || tasks == nil || workers == nil || builder == nil || changes == nil || tracker == nil || sink == nil {
		return nil, errors.New("synchronizer requires all collaborators")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planning config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		runnableBase: newRunnableBase(),
		executor:     executor,
		tasks:        tasks,
		workers:      workers,
		builder:      builder,
		changes:      changes,
		tracker:      tracker,
		sink:         sink,
		cfg:          cfg,
		logger:       logger.With("component", "synchronizer"),
		wakeCh:       make(chan struct{}, 1),
	}, nil
}

// Start launches the worker goroutine. Cancelling ctx is treated as a shutdown
// request, equivalent to Destroy.
func (s *Synchronizer) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("synchronizer already started")
	}
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Debug("synchronizer started", "sync_interval", s.cfg.SyncInterval)
	return nil
}

// TriggerBootstrap schedules a bootstrap: recover the full solution from the
// task store and start the solving engine with it. Fails with ErrNotIdle when
// a mode is already in flight.
func (s *Synchronizer) TriggerBootstrap() error {
	if !s.casRunning() {
		return fmt.Errorf("trigger bootstrap: %w", ErrNotIdle)
	}
	s.mode.Store(int32(modeBootstrap))
	s.wake()
	return nil
}

// TriggerIncrementalSync schedules one incremental synchronization of the
// given working solution, querying for changes since fromWatermark. Fails with
// ErrNotIdle when a mode is already in flight.
func (s *Synchronizer) TriggerIncrementalSync(solution *model.Solution, fromWatermark time.Time) error {
	if !s.casRunning() {
		return fmt.Errorf("trigger incremental sync: %w", ErrNotIdle)
	}
	s.solution = solution
	s.from = fromWatermark
	s.mode.Store(int32(modeIncremental))
	s.logger.Debug("incremental sync triggered", "from", fromWatermark)
	s.wake()
	return nil
}

// Destroy requests shutdown and releases the worker from any blocked wait.
// Idempotent; the loop observes it at its next decision point.
func (s *Synchronizer) Destroy() {
	s.destroy()
}

// Wait blocks until the worker goroutine has exited.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// wake posts one wake-up signal. Triggers and self-retries post exactly one
// each and at most one mode is ever pending, so the buffered send never drops
// a distinct unit of work.
func (s *Synchronizer) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer s.wg.Done()
	defer s.logger.Debug("synchronizer stopped")

	for s.isAlive() {
		select {
		case <-ctx.Done():
			s.destroy()
			return
		case <-s.destroyed():
			return
		case <-s.wakeCh:
		}
		if !s.isAlive() {
			return
		}

		var next syncMode
		switch syncMode(s.mode.Load()) {
		case modeBootstrap:
			next = s.bootstrapStep(ctx)
		case modeIncremental:
			next = s.incrementalStep(ctx)
		}
		s.mode.Store(int32(next))

		if next != modeNone {
			select {
			case <-ctx.Done():
				s.destroy()
				return
			case <-s.destroyed():
				return
			case <-time.After(s.cfg.SyncInterval):
				s.wake()
			}
		} else if s.isAlive() {
			s.forceIdle()
		}
	}
}

// bootstrapStep recovers a full working solution and starts the solving
// engine. It never gives up: every failure or empty recovery converts into a
// bootstrap retry after the sync interval.
func (s *Synchronizer) bootstrapStep(ctx context.Context) syncMode {
	if !s.executor.IsStopped() {
		s.logger.Debug("previous solver run still stopping, will retry", "retry_in", s.cfg.SyncInterval)
		return modeBootstrap
	}

	result, err := s.tasks.FindTasks(ctx, model.ActiveStatuses(), time.Time{}, ProjectionFull)
	if err != nil {
		s.logger.Error("solution recovery query failed, will retry", "retry_in", s.cfg.SyncInterval, "error", err)
		return modeBootstrap
	}

	anchor := result.QueryTime.Add(-s.cfg.BootstrapSafetyMargin)
	s.tracker.Reset(anchor)
	s.tracker.ClearChangeTimestampCache()
	s.tracker.Enqueue(result.QueryTime)
	s.logger.Debug("recovered tasks for solution rebuild",
		"tasks", len(result.Tasks), "query_time", result.QueryTime, "anchor", anchor)

	workers, err := s.workers.ListAllWorkers(ctx)
	if err != nil {
		s.logger.Error("worker directory fetch failed, will retry", "retry_in", s.cfg.SyncInterval, "error", err)
		return modeBootstrap
	}

	solution := s.builder.Build(result.Tasks, workers)

	if !s.isAlive() || s.executor.IsDestroyed() {
		return modeNone
	}
	if len(solution.Tasks) == 0 {
		s.logger.Debug("no active tasks to solve yet, will retry", "retry_in", s.cfg.SyncInterval)
		return modeBootstrap
	}
	if err := s.executor.Start(solution); err != nil {
		s.logger.Error("solver start failed, will retry", "retry_in", s.cfg.SyncInterval, "error", err)
		return modeBootstrap
	}
	s.solverStarts++
	s.logger.Info("solver started with recovered solution",
		"tasks", len(solution.Tasks), "workers", len(solution.Workers), "starts", s.solverStarts)
	if s.solverStarts > 1 {
		s.logger.Warn("solver was restarted; a previous run may have failed applying results to the task store")
	}
	return modeNone
}

// incrementalStep detects one batch of task changes since the pending "from"
// watermark. Non-empty change sets go to the result sink and the worker goes
// idle until the owner re-triggers; empty ones advance the watermark and
// self-retry. Failures retry the same window without moving any watermark.
func (s *Synchronizer) incrementalStep(ctx context.Context) syncMode {
	if !s.executor.IsStarted() {
		// Going idle here strands the owner unless it re-triggers; it usually
		// signals an engine/owner coordination problem, hence the loud log.
		s.logger.Warn("incremental sync requested but solver is not started, going idle")
		return modeNone
	}

	result, err := s.tasks.FindTasks(ctx, nil, s.from, ProjectionPending)
	if err != nil {
		s.logger.Error("incremental query failed, will retry", "from", s.from, "retry_in", s.cfg.SyncInterval, "error", err)
		return modeIncremental
	}
	s.logger.Debug("incremental query done",
		"updated_tasks", len(result.Tasks), "from", s.from, "query_time", result.QueryTime)

	ops := s.changes.BuildChanges(s.solution, result.Tasks, s.tracker)
	if !s.isAlive() {
		return modeNone
	}

	s.tracker.SetPrevious(s.from)
	next := result.QueryTime.Truncate(time.Second)
	if last := s.tracker.PeekNext(); !s.tracker.HasMinimalDistance(last, next) {
		next = last
	}
	s.tracker.Enqueue(next)

	if len(ops) > 0 {
		s.logger.Debug("forwarding change set", "ops", len(ops))
		s.sink(model.ChangeSet{Ops: ops})
		return modeNone
	}

	from, err := s.tracker.DequeueNext()
	if err != nil {
		s.logger.Error("watermark queue underflow, will retry", "error", err)
		return modeIncremental
	}
	s.from = from
	return modeIncremental
}
