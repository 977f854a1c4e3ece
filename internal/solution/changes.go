package solution

import (
	"log/slog"

	"github.com/optassign/optassign/internal/planning"
	"github.com/optassign/optassign/pkg/model"
)

// ChangesBuilder diffs updated task snapshots against the working solution
// into add/update/remove operations.
type ChangesBuilder struct {
	logger *slog.Logger
}

// NewChangesBuilder creates a change-set builder.
func NewChangesBuilder(logger *slog.Logger) *ChangesBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangesBuilder{logger: logger.With("component", "changes_builder")}
}

// BuildChanges computes the operations that bring the solution up to date with
// the updated snapshots. Changes whose timestamp was already processed are
// skipped via the tracker's change-timestamp cache; every snapshot considered
// here records its timestamp in the cache so the same change is never emitted
// twice across polling cycles.
func (b *ChangesBuilder) BuildChanges(sol *model.Solution, updated []*model.Task, tracker *planning.WatermarkTracker) []model.ChangeOp {
	var ops []model.ChangeOp
	for _, t := range updated {
		if tracker.IsProcessedTaskChange(t.ID, t.LastModified) {
			continue
		}
		existing := sol.TaskByID(t.ID)
		switch {
		case t.Status.IsActive() && existing == nil:
			ops = append(ops, model.NewChangeOp(model.ChangeAdd, t.ID, t.Clone()))
		case t.Status.IsActive():
			if taskDiffers(existing, t) {
				ops = append(ops, model.NewChangeOp(model.ChangeUpdate, t.ID, t.Clone()))
			}
		case existing != nil:
			ops = append(ops, model.NewChangeOp(model.ChangeRemove, t.ID, nil))
		default:
			// Terminal task the solution never owned; nothing to do.
		}
		tracker.SetTaskChangeTime(t.ID, t.LastModified)
	}
	if len(ops) > 0 {
		adds, updates, removes := (model.ChangeSet{Ops: ops}).Counts()
		b.logger.Debug("change set built", "adds", adds, "updates", updates, "removes", removes)
	}
	return ops
}

func taskDiffers(current, updated *model.Task) bool {
	return current.Status != updated.Status ||
		current.Priority != updated.Priority ||
		current.AssignedTo != updated.AssignedTo ||
		current.Pinned != updated.Pinned
}
