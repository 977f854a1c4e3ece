package model

import "github.com/google/uuid"

// ChangeType discriminates the kind of mutation a ChangeOp applies to the
// working solution.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeRemove ChangeType = "remove"
)

// ChangeOp is an atomic add/update/remove instruction against the working
// solution, computed by diffing a fresh task snapshot against the solution.
type ChangeOp struct {
	ID     string     `json:"id"`
	Type   ChangeType `json:"type"`
	TaskID string     `json:"taskId"`
	// Task carries the new snapshot for add/update operations; nil for remove.
	Task *Task `json:"task,omitempty"`
}

// NewChangeOp builds a change operation with a fresh operation ID.
func NewChangeOp(t ChangeType, taskID string, task *Task) ChangeOp {
	return ChangeOp{
		ID:     uuid.New().String(),
		Type:   t,
		TaskID: taskID,
		Task:   task,
	}
}

// ChangeSet is the ordered list of change operations produced by one
// incremental synchronization step. An empty set is a valid result meaning
// "no updates this cycle".
type ChangeSet struct {
	Ops []ChangeOp
}

// Empty reports whether the set carries no operations.
func (c ChangeSet) Empty() bool {
	return len(c.Ops) == 0
}

// Counts returns the number of add, update and remove operations.
func (c ChangeSet) Counts() (adds, updates, removes int) {
	for _, op := range c.Ops {
		switch op.Type {
		case ChangeAdd:
			adds++
		case ChangeUpdate:
			updates++
		case ChangeRemove:
			removes++
		}
	}
	return
}
