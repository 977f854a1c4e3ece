package model

// Solution is the in-memory working solution the solving engine optimizes over:
// the set of active tasks and the workers they can be assigned to.
type Solution struct {
	Tasks   []*Task
	Workers []*Worker
}

// Clone returns a deep copy of the solution. The solving engine mutates its own
// copy while the planner keeps the published one.
func (s *Solution) Clone() *Solution {
	c := &Solution{
		Tasks:   make([]*Task, len(s.Tasks)),
		Workers: make([]*Worker, len(s.Workers)),
	}
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	for i, w := range s.Workers {
		c.Workers[i] = w.Clone()
	}
	return c
}

// TaskByID returns the task with the given ID, or nil.
func (s *Solution) TaskByID(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// WorkerByID returns the worker with the given ID, or nil.
func (s *Solution) WorkerByID(id string) *Worker {
	for _, w := range s.Workers {
		if w.ID == id {
			return w
		}
	}
	return nil
}
