// Package solver runs the solving engine that optimizes the working solution
// and exposes the lifecycle the planning synchronizer coordinates with.
package solver

import (
	"context"

	"github.com/optassign/optassign/pkg/model"
)

// BestSolutionListener receives each improved solution the engine produces.
// The listener must not retain or mutate the solution after returning; it is
// handed a dedicated copy.
type BestSolutionListener func(*model.Solution)

// Solver is the optimization engine. Solve blocks until ctx is cancelled,
// working on its own copy of the initial solution, applying change batches
// received on changes, and emitting improved solutions through onBest.
type Solver interface {
	Solve(ctx context.Context, initial *model.Solution, changes <-chan []model.ChangeOp, onBest BestSolutionListener) error
}
