// Package solution builds working solutions from raw task and worker
// snapshots and diffs fresh snapshots against a live solution.
package solution

import (
	"log/slog"

	"github.com/optassign/optassign/pkg/model"
)

// Builder constructs a working solution from task and worker snapshots.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a solution builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger.With("component", "solution_builder")}
}

// Build assembles a solution from the given snapshots. Tasks in terminal
// statuses are dropped, duplicates collapse to the last snapshot seen, and
// assignments referencing unknown or disabled workers are cleared unless the
// task is pinned.
func (b *Builder) Build(tasks []*model.Task, workers []*model.Worker) *model.Solution {
	workerByID := make(map[string]*model.Worker, len(workers))
	sol := &model.Solution{}
	for _, w := range workers {
		if _, dup := workerByID[w.ID]; dup {
			continue
		}
		c := w.Clone()
		workerByID[w.ID] = c
		sol.Workers = append(sol.Workers, c)
	}

	taskIndex := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if !t.Status.IsActive() {
			continue
		}
		c := t.Clone()
		if c.AssignedTo != "" && !c.Pinned {
			if w, ok := workerByID[c.AssignedTo]; !ok || !w.Enabled {
				b.logger.Debug("clearing assignment to unavailable worker",
					"task", c.ID, "worker", c.AssignedTo)
				c.AssignedTo = ""
			}
		}
		if i, dup := taskIndex[c.ID]; dup {
			sol.Tasks[i] = c
			continue
		}
		taskIndex[c.ID] = len(sol.Tasks)
		sol.Tasks = append(sol.Tasks, c)
	}
	return sol
}
