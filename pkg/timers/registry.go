// Package timers tracks outstanding timeout timers so they can be cancelled together.
package timers

import (
	"sync"
	"time"
)

// Handle identifies a scheduled timer.
type Handle uint64

// Registry owns a set of pending timers.
// Once Cancel or CancelAll returns, the cancelled callbacks will not run
// unless they had already begun.
type Registry struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{timers: make(map[Handle]*time.Timer)}
}

// Schedule runs fn after d unless cancelled first.
func (r *Registry) Schedule(d time.Duration, fn func()) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.timers[h] = time.AfterFunc(d, func() {
		r.mu.Lock()
		_, live := r.timers[h]
		delete(r.timers, h)
		r.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

// Cancel stops the timer behind h. It reports whether the timer was still pending.
func (r *Registry) Cancel(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, h)
	return true
}

// CancelAll stops every pending timer and returns how many were cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.timers)
	for h, t := range r.timers {
		t.Stop()
		delete(r.timers, h)
	}
	return n
}

// Len returns the number of pending timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
