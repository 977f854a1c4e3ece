package planning

import (
	"context"
	"time"

	"github.com/optassign/optassign/pkg/model"
)

// Projection selects how much task data a find returns.
type Projection int

const (
	// ProjectionFull reads all task input data. Used at bootstrap, where the
	// whole solution is rebuilt.
	ProjectionFull Projection = iota
	// ProjectionPending reads minimal fields for active tasks not yet owned by
	// the working solution. Used by incremental sync.
	ProjectionPending
)

// FindResult is the outcome of a task-store query: the matching snapshots and
// the server-side timestamp at which the query executed. Watermarks are always
// derived from QueryTime, never from client clocks.
type FindResult struct {
	Tasks     []*model.Task
	QueryTime time.Time
}

// TaskSource reads task snapshots from the external system of record. Exactly
// one of statuses/modifiedSince is meaningfully populated per call site:
// status-based for bootstrap, time-based for incremental sync.
type TaskSource interface {
	FindTasks(ctx context.Context, statuses []model.TaskStatus, modifiedSince time.Time, projection Projection) (FindResult, error)
}

// WorkerDirectory lists the workers eligible for assignment.
type WorkerDirectory interface {
	ListAllWorkers(ctx context.Context) ([]*model.Worker, error)
}

// SolverExecutor is the synchronizer's view of the solving engine lifecycle.
type SolverExecutor interface {
	IsStopped() bool
	IsStarted() bool
	IsDestroyed() bool
	Start(solution *model.Solution) error
}

// SolutionBuilder constructs a working solution from raw snapshots.
type SolutionBuilder interface {
	Build(tasks []*model.Task, workers []*model.Worker) *model.Solution
}

// ChangeSetBuilder diffs a fresh task snapshot set against the working
// solution, producing the change operations that would bring the solution up
// to date. It may consult and update the tracker's change-timestamp cache.
type ChangeSetBuilder interface {
	BuildChanges(solution *model.Solution, updated []*model.Task, tracker *WatermarkTracker) []model.ChangeOp
}

// ResultSink receives each non-empty change set, invoked synchronously from
// the synchronizer worker at most once per incremental step.
type ResultSink func(model.ChangeSet)
