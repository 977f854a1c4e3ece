package solver

import (
	"context"
	"log/slog"
	"sort"

	"github.com/optassign/optassign/pkg/model"
)

// Greedy is a simple baseline engine: it assigns each unassigned task to the
// least-loaded enabled worker that satisfies the task's group and skill
// requirements, higher priority first. It re-solves whenever a change batch
// arrives and emits the result through the best-solution listener.
type Greedy struct {
	logger *slog.Logger
}

// NewGreedy creates a greedy solver.
func NewGreedy(logger *slog.Logger) *Greedy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Greedy{logger: logger.With("component", "greedy_solver")}
}

// Solve implements Solver.
func (g *Greedy) Solve(ctx context.Context, initial *model.Solution, changes <-chan []model.ChangeOp, onBest BestSolutionListener) error {
	working := initial.Clone()
	g.assign(working)
	onBest(working.Clone())

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-changes:
			if !ok {
				return nil
			}
			g.apply(working, batch)
			g.assign(working)
			onBest(working.Clone())
		}
	}
}

func (g *Greedy) apply(sol *model.Solution, ops []model.ChangeOp) {
	for _, op := range ops {
		switch op.Type {
		case model.ChangeAdd:
			if sol.TaskByID(op.TaskID) == nil && op.Task != nil {
				sol.Tasks = append(sol.Tasks, op.Task.Clone())
			}
		case model.ChangeUpdate:
			if op.Task == nil {
				continue
			}
			for i, t := range sol.Tasks {
				if t.ID == op.TaskID {
					updated := op.Task.Clone()
					// An in-flight assignment survives a status/priority
					// update unless the snapshot names a new owner.
					if updated.AssignedTo == "" {
						updated.AssignedTo = t.AssignedTo
					}
					sol.Tasks[i] = updated
					break
				}
			}
		case model.ChangeRemove:
			for i, t := range sol.Tasks {
				if t.ID == op.TaskID {
					sol.Tasks = append(sol.Tasks[:i], sol.Tasks[i+1:]...)
					break
				}
			}
		}
	}
}

func (g *Greedy) assign(sol *model.Solution) {
	load := make(map[string]int, len(sol.Workers))
	for _, t := range sol.Tasks {
		if t.AssignedTo != "" {
			load[t.AssignedTo]++
		}
	}

	pending := make([]*model.Task, 0, len(sol.Tasks))
	for _, t := range sol.Tasks {
		if t.AssignedTo == "" && !t.Pinned {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority > pending[j].Priority
	})

	for _, t := range pending {
		var best *model.Worker
		for _, w := range sol.Workers {
			if !w.CanTake(t) {
				continue
			}
			if best == nil || load[w.ID] < load[best.ID] {
				best = w
			}
		}
		if best == nil {
			g.logger.Debug("no eligible worker for task", "task", t.ID)
			continue
		}
		t.AssignedTo = best.ID
		load[best.ID]++
	}
}
