package model

// Worker is a snapshot of an assignable worker as read from the worker directory.
type Worker struct {
	ID      string   `json:"id"`
	Groups  []string `json:"groups,omitempty"`
	Skills  []string `json:"skills,omitempty"`
	Enabled bool     `json:"enabled"`
}

// HasGroup reports whether the worker belongs to the given group.
func (w *Worker) HasGroup(group string) bool {
	for _, g := range w.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// HasSkill reports whether the worker has the given skill.
func (w *Worker) HasSkill(skill string) bool {
	for _, s := range w.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// CanTake reports whether the worker satisfies the group and skill
// requirements of the task.
func (w *Worker) CanTake(t *Task) bool {
	if !w.Enabled {
		return false
	}
	for _, g := range t.Groups {
		if !w.HasGroup(g) {
			return false
		}
	}
	for _, s := range t.Skills {
		if !w.HasSkill(s) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the worker.
func (w *Worker) Clone() *Worker {
	c := *w
	if w.Groups != nil {
		c.Groups = append([]string(nil), w.Groups...)
	}
	if w.Skills != nil {
		c.Skills = append([]string(nil), w.Skills...)
	}
	return &c
}
