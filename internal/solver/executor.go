package solver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/optassign/optassign/pkg/model"
)

// ErrNotStopped is returned by Start when a previous run has not finished
// tearing down yet.
var ErrNotStopped = errors.New("solver executor is not stopped")

// ErrDestroyed is returned by Start after the executor has been destroyed.
var ErrDestroyed = errors.New("solver executor is destroyed")

type executorState int32

const (
	execStopped executorState = iota
	execStarting
	execStarted
	execStopping
)

// Executor runs a Solver on a dedicated goroutine and exposes the
// started/stopped/destroyed lifecycle the synchronizer coordinates with.
// Stop and Destroy are asynchronous: the state returns to stopped only once
// the solver goroutine has actually exited, which is exactly the window the
// synchronizer waits out before restarting the engine.
type Executor struct {
	solver Solver
	onBest BestSolutionListener
	logger *slog.Logger

	state     atomic.Int32
	destroyed atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	changes chan []model.ChangeOp
	wg      sync.WaitGroup
}

// NewExecutor wraps a solver. onBest receives every improved solution.
func NewExecutor(s Solver, onBest BestSolutionListener, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		solver: s,
		onBest: onBest,
		logger: logger.With("component", "solver_executor"),
	}
}

// IsStopped reports whether no solver run is active or tearing down.
func (e *Executor) IsStopped() bool {
	return executorState(e.state.Load()) == execStopped
}

// IsStarted reports whether the solver is currently running.
func (e *Executor) IsStarted() bool {
	return executorState(e.state.Load()) == execStarted
}

// IsDestroyed reports whether the executor has been destroyed.
func (e *Executor) IsDestroyed() bool {
	return e.destroyed.Load()
}

// Start launches the solver with the given solution. It fails when the
// executor is destroyed or a previous run has not fully stopped.
func (e *Executor) Start(solution *model.Solution) error {
	if e.destroyed.Load() {
		return ErrDestroyed
	}
	if !e.state.CompareAndSwap(int32(execStopped), int32(execStarting)) {
		return ErrNotStopped
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []model.ChangeOp, 16)

	e.mu.Lock()
	e.cancel = cancel
	e.changes = changes
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.state.Store(int32(execStopped))
		e.state.Store(int32(execStarted))
		e.logger.Info("solver run started", "tasks", len(solution.Tasks), "workers", len(solution.Workers))
		if err := e.solver.Solve(ctx, solution, changes, e.onBest); err != nil {
			e.logger.Error("solver run failed", "error", err)
		}
		e.logger.Info("solver run finished")
	}()
	return nil
}

// AddProblemChanges hands a change batch to the running solver. Returns false
// when no run is active.
func (e *Executor) AddProblemChanges(ops []model.ChangeOp) bool {
	if !e.IsStarted() {
		return false
	}
	e.mu.Lock()
	changes := e.changes
	e.mu.Unlock()
	if changes == nil {
		return false
	}
	select {
	case changes <- ops:
		return true
	default:
		e.logger.Warn("solver change queue full, dropping batch", "ops", len(ops))
		return false
	}
}

// Stop requests the current run to terminate. The executor reports stopped
// once the solver goroutine exits.
func (e *Executor) Stop() {
	if !e.state.CompareAndSwap(int32(execStarted), int32(execStopping)) {
		return
	}
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
}

// Destroy terminates any current run and permanently disables the executor.
// Only the first call has effect.
func (e *Executor) Destroy() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
}

// Wait blocks until the current solver run, if any, has exited.
func (e *Executor) Wait() {
	e.wg.Wait()
}
