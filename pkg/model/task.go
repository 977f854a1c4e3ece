package model

import "time"

// TaskStatus represents the lifecycle status of a task in the external runtime.
type TaskStatus string

const (
	StatusCreated    TaskStatus = "Created"
	StatusReady      TaskStatus = "Ready"
	StatusReserved   TaskStatus = "Reserved"
	StatusInProgress TaskStatus = "InProgress"
	StatusSuspended  TaskStatus = "Suspended"
	StatusCompleted  TaskStatus = "Completed"
	StatusFailed     TaskStatus = "Failed"
	StatusExited     TaskStatus = "Exited"
	StatusObsolete   TaskStatus = "Obsolete"
)

// ActiveStatuses are the statuses of tasks that participate in planning.
// Tasks in any other status are terminal from the planner's perspective.
func ActiveStatuses() []TaskStatus {
	return []TaskStatus{StatusReady, StatusReserved, StatusInProgress, StatusSuspended}
}

// IsActive reports whether s is one of the planning-relevant statuses.
func (s TaskStatus) IsActive() bool {
	switch s {
	case StatusReady, StatusReserved, StatusInProgress, StatusSuspended:
		return true
	}
	return false
}

// Task is a snapshot of a work item as read from the task store.
type Task struct {
	ID           string                 `bson:"_id" json:"id"`
	Name         string                 `bson:"name" json:"name"`
	Status       TaskStatus             `bson:"status" json:"status"`
	Priority     int                    `bson:"priority" json:"priority"`
	Groups       []string               `bson:"groups,omitempty" json:"groups,omitempty"`
	Skills       []string               `bson:"skills,omitempty" json:"skills,omitempty"`
	Inputs       map[string]interface{} `bson:"inputs,omitempty" json:"inputs,omitempty"`
	AssignedTo   string                 `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	Pinned       bool                   `bson:"pinned,omitempty" json:"pinned,omitempty"`
	LastModified time.Time              `bson:"last_modified" json:"lastModified"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Groups != nil {
		c.Groups = append([]string(nil), t.Groups...)
	}
	if t.Skills != nil {
		c.Skills = append([]string(nil), t.Skills...)
	}
	if t.Inputs != nil {
		c.Inputs = make(map[string]interface{}, len(t.Inputs))
		for k, v := range t.Inputs {
			c.Inputs[k] = v
		}
	}
	return &c
}
