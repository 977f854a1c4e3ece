package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/optassign/optassign/pkg/model"
)

type syncFixture struct {
	executor *MockSolverExecutor
	tasks    *MockTaskSource
	workers  *MockWorkerDirectory
	builder  *MockSolutionBuilder
	changes  *MockChangeSetBuilder
	tracker  *WatermarkTracker
	sinkCh   chan model.ChangeSet
	sync     *Synchronizer
}

func newSyncFixture(t *testing.T, cfg Config) *syncFixture {
	t.Helper()
	f := &syncFixture{
		executor: new(MockSolverExecutor),
		tasks:    new(MockTaskSource),
		workers:  new(MockWorkerDirectory),
		builder:  new(MockSolutionBuilder),
		changes:  new(MockChangeSetBuilder),
		tracker:  NewWatermarkTracker(cfg.MinBoundaryDistance),
		sinkCh:   make(chan model.ChangeSet, 10),
	}
	sink := func(cs model.ChangeSet) {
		f.sinkCh <- cs
	}
	s, err := NewSynchronizer(f.executor, f.tasks, f.workers, f.builder, f.changes, f.tracker, cfg, sink, nil)
	require.NoError(t, err)
	f.sync = s
	return f
}

func fastConfig() Config {
	return Config{
		SyncInterval:          10 * time.Millisecond,
		MinBoundaryDistance:   10 * time.Second,
		BootstrapSafetyMargin: time.Hour,
		ChangesSubject:        "planning.changes",
	}
}

func TestTriggerWhileRunningFails(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	// Worker not started: the run state stays RUNNING after the first trigger.
	require.NoError(t, f.sync.TriggerBootstrap())

	err := f.sync.TriggerBootstrap()
	assert.ErrorIs(t, err, ErrNotIdle)
	err = f.sync.TriggerIncrementalSync(&model.Solution{}, time.Now())
	assert.ErrorIs(t, err, ErrNotIdle)

	// The failed triggers must not have touched mode or pending context.
	assert.Equal(t, modeBootstrap, syncMode(f.sync.mode.Load()))
	assert.Nil(t, f.sync.solution)
	assert.True(t, f.sync.from.IsZero())
}

func TestBootstrapStartsSolver(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	queryTime := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	t1 := &model.Task{ID: "T1", Status: model.StatusReady, LastModified: queryTime}
	t2 := &model.Task{ID: "T2", Status: model.StatusInProgress, LastModified: queryTime}
	w1 := &model.Worker{ID: "W1", Enabled: true}
	recovered := &model.Solution{Tasks: []*model.Task{t1, t2}, Workers: []*model.Worker{w1}}

	f.executor.On("IsStopped").Return(true)
	f.executor.On("IsDestroyed").Return(false)
	started := make(chan *model.Solution, 1)
	f.executor.On("Start", mock.Anything).Run(func(args mock.Arguments) {
		started <- args.Get(0).(*model.Solution)
	}).Return(nil)

	f.tasks.On("FindTasks", mock.Anything, model.ActiveStatuses(), time.Time{}, ProjectionFull).
		Return(FindResult{Tasks: []*model.Task{t1, t2}, QueryTime: queryTime}, nil)
	f.workers.On("ListAllWorkers", mock.Anything).Return([]*model.Worker{w1}, nil)
	f.builder.On("Build", mock.Anything, mock.Anything).Return(recovered)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerBootstrap())

	select {
	case sol := <-started:
		assert.Len(t, sol.Tasks, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("solver was not started")
	}

	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 5, 0, time.UTC), f.tracker.Previous())
	assert.Equal(t, queryTime, f.tracker.PeekNext())

	// Bootstrap succeeded: the worker must go idle, not retry.
	assert.Eventually(t, func() bool { return !f.sync.isRunning() }, 2*time.Second, 5*time.Millisecond)
	f.executor.AssertNumberOfCalls(t, "Start", 1)
}

func TestBootstrapRetriesWhenNoTasks(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	queryTime := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	queries := make(chan struct{}, 16)

	f.executor.On("IsStopped").Return(true)
	f.executor.On("IsDestroyed").Return(false)
	f.tasks.On("FindTasks", mock.Anything, mock.Anything, mock.Anything, ProjectionFull).
		Run(func(mock.Arguments) { queries <- struct{}{} }).
		Return(FindResult{QueryTime: queryTime}, nil)
	f.workers.On("ListAllWorkers", mock.Anything).Return([]*model.Worker{}, nil)
	f.builder.On("Build", mock.Anything, mock.Anything).Return(&model.Solution{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerBootstrap())

	// At least two queries prove the retry loop, not a one-shot attempt.
	for i := 0; i < 2; i++ {
		select {
		case <-queries:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected bootstrap retry %d", i+1)
		}
	}
	f.executor.AssertNotCalled(t, "Start", mock.Anything)
}

func TestBootstrapWaitsForSolverTeardown(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	checks := make(chan struct{}, 16)
	f.executor.On("IsStopped").Run(func(mock.Arguments) { checks <- struct{}{} }).Return(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerBootstrap())

	for i := 0; i < 2; i++ {
		select {
		case <-checks:
		case <-time.After(2 * time.Second):
			t.Fatal("expected bootstrap to keep checking the solver state")
		}
	}
	f.tasks.AssertNotCalled(t, "FindTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIncrementalForwardsChanges(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	queryTime := from.Add(30 * time.Second)
	sol := &model.Solution{Tasks: []*model.Task{{ID: "T1", Status: model.StatusReady}}}
	updated := []*model.Task{{ID: "T1", Status: model.StatusInProgress, LastModified: queryTime}}
	ops := []model.ChangeOp{model.NewChangeOp(model.ChangeUpdate, "T1", updated[0])}

	f.executor.On("IsStarted").Return(true)
	f.tasks.On("FindTasks", mock.Anything, mock.Anything, from, ProjectionPending).
		Return(FindResult{Tasks: updated, QueryTime: queryTime}, nil)
	f.changes.On("BuildChanges", sol, updated, f.tracker).Return(ops)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerIncrementalSync(sol, from))

	select {
	case cs := <-f.sinkCh:
		assert.Equal(t, ops, cs.Ops)
	case <-time.After(2 * time.Second):
		t.Fatal("change set was not forwarded")
	}

	assert.Equal(t, from, f.tracker.Previous())
	assert.Equal(t, queryTime.Truncate(time.Second), f.tracker.PeekNext())

	// Non-empty changes end the mode: the worker goes idle and the sink is
	// invoked exactly once.
	assert.Eventually(t, func() bool { return !f.sync.isRunning() }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.sinkCh)
}

func TestIncrementalEmptyAdvancesWatermark(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	// Existing enqueued boundary 2s after t0; candidate will be t0+5s with a
	// 10s minimum distance, so the candidate must be rejected.
	f.tracker.SetPrevious(t0.Add(-time.Hour))
	f.tracker.Enqueue(t0.Add(2 * time.Second))

	froms := make(chan time.Time, 16)
	f.executor.On("IsStarted").Return(true)
	f.tasks.On("FindTasks", mock.Anything, mock.Anything, mock.Anything, ProjectionPending).
		Run(func(args mock.Arguments) { froms <- args.Get(2).(time.Time) }).
		Return(FindResult{QueryTime: t0.Add(5 * time.Second)}, nil)
	f.changes.On("BuildChanges", mock.Anything, mock.Anything, f.tracker).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerIncrementalSync(&model.Solution{}, t0))

	// First query uses the triggered watermark.
	select {
	case got := <-froms:
		assert.Equal(t, t0, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no incremental query")
	}
	// Empty change set: the worker re-polls on its own with the dequeued
	// boundary, without any new trigger.
	select {
	case got := <-froms:
		assert.Equal(t, t0.Add(2*time.Second), got)
	case <-time.After(2 * time.Second):
		t.Fatal("no self-retry query")
	}

	// The candidate t0+5s was too close to t0+2s and must not appear.
	assert.Equal(t, t0.Add(2*time.Second), f.tracker.PeekNext())
	assert.Empty(t, f.sinkCh)
}

func TestIncrementalFailureLeavesWatermarkUntouched(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	prev := t0.Add(-time.Minute)
	pending := t0.Add(20 * time.Second)
	f.tracker.SetPrevious(prev)
	f.tracker.Enqueue(pending)

	froms := make(chan time.Time, 16)
	f.executor.On("IsStarted").Return(true)
	f.tasks.On("FindTasks", mock.Anything, mock.Anything, mock.Anything, ProjectionPending).
		Run(func(args mock.Arguments) { froms <- args.Get(2).(time.Time) }).
		Return(FindResult{}, errors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerIncrementalSync(&model.Solution{}, t0))

	// Two failing attempts, both with the same unadvanced watermark.
	for i := 0; i < 2; i++ {
		select {
		case got := <-froms:
			assert.Equal(t, t0, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected retry %d", i+1)
		}
	}

	assert.Equal(t, prev, f.tracker.Previous())
	assert.Equal(t, pending, f.tracker.PeekNext())
	f.changes.AssertNotCalled(t, "BuildChanges", mock.Anything, mock.Anything, mock.Anything)
}

func TestIncrementalIdlesWhenSolverNotStarted(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, fastConfig())

	f.executor.On("IsStarted").Return(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))
	defer f.sync.Destroy()
	require.NoError(t, f.sync.TriggerIncrementalSync(&model.Solution{}, time.Now()))

	assert.Eventually(t, func() bool { return !f.sync.isRunning() }, 2*time.Second, 5*time.Millisecond)
	f.tasks.AssertNotCalled(t, "FindTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.sinkCh)

	// Idle again: the owner may re-trigger.
	assert.NoError(t, f.sync.TriggerIncrementalSync(&model.Solution{}, time.Now()))
}

func TestDestroyUnblocksIdleWorker(t *testing.T) {
	t.Parallel()
	// A huge poll interval proves destroy does not depend on it.
	cfg := fastConfig()
	cfg.SyncInterval = time.Hour
	f := newSyncFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.sync.Start(ctx))

	f.sync.Destroy()

	done := make(chan struct{})
	go func() {
		f.sync.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after destroy")
	}
	assert.False(t, f.sync.isAlive())
}

func TestContextCancellationStopsWorker(t *testing.T) {
	t.Parallel()
	cfg := fastConfig()
	cfg.SyncInterval = time.Hour
	f := newSyncFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.sync.Start(ctx))

	cancel()

	done := make(chan struct{})
	go func() {
		f.sync.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after context cancellation")
	}
	assert.False(t, f.sync.isAlive())
}
