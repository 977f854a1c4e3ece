package planning

import (
	"errors"
	"sync"
	"time"
)

// ErrEmptyQueue is returned by DequeueNext when no boundary is pending. The
// synchronizer always enqueues before it dequeues, so hitting this is a caller
// bug rather than a runtime condition.
var ErrEmptyQueue = errors.New("watermark queue is empty")

// WatermarkTracker keeps the time-window bookkeeping for incremental
// synchronization: the boundary of the last consumed window and an ordered
// queue of candidate boundaries for upcoming queries.
//
// External stores may truncate timestamps (commonly to whole seconds), so two
// boundaries computed microseconds apart can collide after truncation and
// produce a zero-width or inverted window. The minimum-distance rule keeps
// every window at a non-trivial width: a candidate closer than minDistance to
// the most recently accepted boundary is rejected and the existing boundary
// reused instead.
//
// The tracker is mutated by the synchronizer worker; the owner additionally
// dequeues the next boundary when re-triggering incremental sync, so access is
// mutex-guarded.
type WatermarkTracker struct {
	mu          sync.Mutex
	minDistance time.Duration
	previous    time.Time
	queue       []time.Time

	// taskChanges records the last change timestamp seen per task, used by the
	// change-set builder to suppress re-detection of changes already applied.
	taskChanges map[string]time.Time
}

// NewWatermarkTracker creates a tracker enforcing the given minimum distance
// between consecutive boundaries.
func NewWatermarkTracker(minDistance time.Duration) *WatermarkTracker {
	return &WatermarkTracker{
		minDistance: minDistance,
		taskChanges: make(map[string]time.Time),
	}
}

// Reset clears the queue and sets the previous boundary. Used only at
// bootstrap, discarding all prior window state.
func (w *WatermarkTracker) Reset(boundary time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = w.queue[:0]
	w.previous = boundary
}

// SetPrevious records the start of the window just consumed.
func (w *WatermarkTracker) SetPrevious(boundary time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.previous = boundary
}

// Previous returns the start of the last consumed window.
func (w *WatermarkTracker) Previous() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.previous
}

// PeekNext returns the most recently enqueued boundary without removing it,
// or the zero time when the queue is empty.
func (w *WatermarkTracker) PeekNext() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return time.Time{}
	}
	return w.queue[len(w.queue)-1]
}

// Enqueue appends a candidate boundary. Insertion order is chronological
// order; callers guard with HasMinimalDistance before enqueueing.
func (w *WatermarkTracker) Enqueue(boundary time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = append(w.queue, boundary)
}

// DequeueNext removes and returns the oldest enqueued boundary, which becomes
// the "from" watermark of the next incremental query.
func (w *WatermarkTracker) DequeueNext() (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return time.Time{}, ErrEmptyQueue
	}
	next := w.queue[0]
	w.queue = w.queue[1:]
	return next, nil
}

// HasMinimalDistance reports whether a and b are far enough apart to form a
// valid window. A zero value on either side means "undefined" and passes.
func (w *WatermarkTracker) HasMinimalDistance(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return d >= w.minDistance
}

// SetTaskChangeTime records the last processed change timestamp for a task.
func (w *WatermarkTracker) SetTaskChangeTime(taskID string, changed time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.taskChanges[taskID] = changed
}

// IsProcessedTaskChange reports whether a change for the task at the given
// timestamp has already been applied to the working solution.
func (w *WatermarkTracker) IsProcessedTaskChange(taskID string, changed time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen, ok := w.taskChanges[taskID]
	return ok && !changed.After(seen)
}

// ClearChangeTimestampCache drops the per-task change bookkeeping. Invoked at
// bootstrap only, together with Reset.
func (w *WatermarkTracker) ClearChangeTimestampCache() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.taskChanges = make(map[string]time.Time)
}
