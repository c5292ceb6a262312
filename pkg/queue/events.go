package queue

import (
	"sync"

	"github.com/jdziat/simple-async-jobs/pkg/core"
)

// Listener receives lifecycle events synchronously.
type Listener func(core.Event)

type listener struct {
	id uint64
	fn Listener
}

// On registers fn for events of the given kind. Listeners run in
// registration order, on the goroutine that caused the event, without
// any queue lock held. The returned function removes the listener.
func (q *Queue) On(kind core.EventKind, fn Listener) (remove func()) {
	q.hooksMu.Lock()
	q.nextListener++
	id := q.nextListener
	q.listeners[kind] = append(q.listeners[kind], &listener{id: id, fn: fn})
	q.hooksMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.hooksMu.Lock()
			defer q.hooksMu.Unlock()
			ls := q.listeners[kind]
			for i, l := range ls {
				if l.id == id {
					q.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
					return
				}
			}
		})
	}
}

// OnJobStart registers a callback for when a job is admitted.
func (q *Queue) OnJobStart(fn func(*core.JobStarted)) func() {
	return q.On(core.EventStart, func(e core.Event) { fn(e.(*core.JobStarted)) })
}

// OnJobSuccess registers a callback for when a job completes successfully.
func (q *Queue) OnJobSuccess(fn func(*core.JobSucceeded)) func() {
	return q.On(core.EventSuccess, func(e core.Event) { fn(e.(*core.JobSucceeded)) })
}

// OnJobFail registers a callback for when a job reports an error.
func (q *Queue) OnJobFail(fn func(*core.JobFailed)) func() {
	return q.On(core.EventError, func(e core.Event) { fn(e.(*core.JobFailed)) })
}

// OnJobTimeout registers a callback for when a job's timer fires.
// The job is already marked timed out: calling e.Next with an error
// fails it, while values passed to e.Next are dropped.
func (q *Queue) OnJobTimeout(fn func(*core.JobTimedOut)) func() {
	return q.On(core.EventTimeout, func(e core.Event) { fn(e.(*core.JobTimedOut)) })
}

// OnEnd registers a callback for when a session ends.
func (q *Queue) OnEnd(fn func(*core.QueueEnded)) func() {
	return q.On(core.EventEnd, func(e core.Event) { fn(e.(*core.QueueEnded)) })
}

// onceOnEnd runs fn on the end of the given session only.
func (q *Queue) onceOnEnd(session uint64, fn func(*core.QueueEnded)) {
	var (
		once   sync.Once
		remove func()
		mu     sync.Mutex
	)
	mu.Lock()
	defer mu.Unlock()
	remove = q.OnEnd(func(e *core.QueueEnded) {
		if e.Session != session {
			return
		}
		once.Do(func() {
			mu.Lock()
			r := remove
			mu.Unlock()
			r()
			fn(e)
		})
	})
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.hooksMu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.hooksMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed; callers must stop reading before calling Unsubscribe.
// After Unsubscribe returns, no further events will be sent to the channel.
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.hooksMu.Lock()
	defer q.hooksMu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// emit delivers e to subscribers, then to listeners.
func (q *Queue) emit(e core.Event) {
	q.hooksMu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	ls := make([]*listener, len(q.listeners[e.Kind()]))
	copy(ls, q.listeners[e.Kind()])
	q.hooksMu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full - this prevents blocking on slow consumers
		}
	}
	for _, l := range ls {
		l.fn(e)
	}
}
