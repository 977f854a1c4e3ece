package planning

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/optassign/optassign/pkg/model"
)

// MockSolverExecutor
type MockSolverExecutor struct {
	mock.Mock
}

func (m *MockSolverExecutor) IsStopped() bool {
	return m.Called().Bool(0)
}

func (m *MockSolverExecutor) IsStarted() bool {
	return m.Called().Bool(0)
}

func (m *MockSolverExecutor) IsDestroyed() bool {
	return m.Called().Bool(0)
}

func (m *MockSolverExecutor) Start(solution *model.Solution) error {
	return m.Called(solution).Error(0)
}

// MockTaskSource
type MockTaskSource struct {
	mock.Mock
}

func (m *MockTaskSource) FindTasks(ctx context.Context, statuses []model.TaskStatus, modifiedSince time.Time, projection Projection) (FindResult, error) {
	args := m.Called(ctx, statuses, modifiedSince, projection)
	return args.Get(0).(FindResult), args.Error(1)
}

// MockWorkerDirectory
type MockWorkerDirectory struct {
	mock.Mock
}

func (m *MockWorkerDirectory) ListAllWorkers(ctx context.Context) ([]*model.Worker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Worker), args.Error(1)
}

// MockSolutionBuilder
type MockSolutionBuilder struct {
	mock.Mock
}

func (m *MockSolutionBuilder) Build(tasks []*model.Task, workers []*model.Worker) *model.Solution {
	args := m.Called(tasks, workers)
	return args.Get(0).(*model.Solution)
}

// MockChangeSetBuilder
type MockChangeSetBuilder struct {
	mock.Mock
}

func (m *MockChangeSetBuilder) BuildChanges(solution *model.Solution, updated []*model.Task, tracker *WatermarkTracker) []model.ChangeOp {
	args := m.Called(solution, updated, tracker)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.ChangeOp)
}
