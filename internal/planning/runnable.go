package planning

import (
	"sync"
	"sync/atomic"
)

// runState is the observable run state of a background worker.
type runState int32

const (
	stateIdle runState = iota
	stateRunning
)

// runnableBase is the lifecycle primitive shared by the background workers in
// this package: an atomically observed idle/running cell plus a terminal
// destroyed flag. Destroy requests shutdown; the worker loop observes it at
// its next wake-up, so callers must not assume it is synchronous.
type runnableBase struct {
	state       atomic.Int32
	alive       atomic.Bool
	destroyOnce sync.Once
	destroyCh   chan struct{}
}

func newRunnableBase() *runnableBase {
	r := &runnableBase{
		destroyCh: make(chan struct{}),
	}
	r.alive.Store(true)
	return r
}

// isAlive reports whether the worker has not been destroyed.
func (r *runnableBase) isAlive() bool {
	return r.alive.Load()
}

// casRunning atomically transitions idle -> running. Returns false when the
// worker is already running, in which case the caller must not proceed.
func (r *runnableBase) casRunning() bool {
	return r.state.CompareAndSwap(int32(stateIdle), int32(stateRunning))
}

// forceIdle unconditionally returns the run state to idle.
func (r *runnableBase) forceIdle() {
	r.state.Store(int32(stateIdle))
}

// isRunning reports whether a mode is currently in flight.
func (r *runnableBase) isRunning() bool {
	return runState(r.state.Load()) == stateRunning
}

// destroy marks the worker as not alive and releases any wait blocked on
// destroyed(). Only the first call has effect.
func (r *runnableBase) destroy() {
	r.destroyOnce.Do(func() {
		r.alive.Store(false)
		close(r.destroyCh)
	})
}

// destroyed returns a channel closed once destroy has been requested.
func (r *runnableBase) destroyed() <-chan struct{} {
	return r.destroyCh
}
