package queue

import (
	"context"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/future"
)

// EndCallback receives the end error (nil when drained) and the collected
// results (nil without WithResults).
type EndCallback func(err error, results [][]any)

// Start begins processing. callback, if not nil, runs once when the
// current session ends. It returns core.ErrAlreadyStarted if the queue is
// already running.
func (q *Queue) Start(callback EndCallback) error {
	_, err := q.start(callback)
	return err
}

// start is Start returning the session it began.
func (q *Queue) start(callback EndCallback) (uint64, error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return 0, core.ErrAlreadyStarted
	}
	q.running = true
	session := q.session
	if callback != nil {
		q.onceOnEnd(session, func(e *core.QueueEnded) {
			callback(e.Error, q.Results())
		})
	}
	q.mu.Unlock()

	q.logger.Info("queue started", "session", session)
	q.admit()
	return session, nil
}

// StartAsync begins processing and returns a Future that resolves with the
// collected results when the session drains, or rejects with the end error.
func (q *Queue) StartAsync() (*future.Future[[][]any], error) {
	f, _, err := q.startAsync()
	return f, err
}

func (q *Queue) startAsync() (*future.Future[[][]any], uint64, error) {
	f := future.New[[][]any]()
	session, err := q.start(func(err error, results [][]any) {
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(results)
	})
	if err != nil {
		return nil, 0, err
	}
	return f, session, nil
}

// Run starts the queue and blocks until the session ends or ctx is done.
// If ctx is done first the session Run started is ended with ctx's error;
// a later session is left alone.
func (q *Queue) Run(ctx context.Context) ([][]any, error) {
	f, session, err := q.startAsync()
	if err != nil {
		return nil, err
	}
	select {
	case <-f.Done():
	case <-ctx.Done():
		q.endSession(session, ctx.Err())
	}
	return f.Wait(context.Background())
}

// Stop pauses admission. In-flight jobs still complete and free their
// slots, but no pending job starts until Start is called again.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.running = false
	session := q.session
	q.mu.Unlock()

	q.logger.Info("queue stopped", "session", session)
}

// End cancels all job timers, discards pending jobs, forgets in-flight
// jobs and ends the session with err.
func (q *Queue) End(err error) {
	q.mu.Lock()
	q.endLocked(err)
}

// endSession is End restricted to session. It reports whether it ended it.
func (q *Queue) endSession(session uint64, err error) bool {
	q.mu.Lock()
	if q.session != session {
		q.mu.Unlock()
		return false
	}
	q.endLocked(err)
	return true
}

// endLocked clears the queue and ends the session. It releases q.mu.
func (q *Queue) endLocked(err error) {
	cancelled := q.timers.CancelAll()
	discarded := q.pending.Len()
	q.pending.Clear()
	q.inFlight = 0
	ended := q.finishLocked(err)
	q.mu.Unlock()

	q.logger.Debug("queue cleared", "session", ended.Session, "timers_cancelled", cancelled, "jobs_discarded", discarded)
	q.emitEnd(ended)
}

// finishLocked starts a new session, invalidating every completion of the
// current one.
func (q *Queue) finishLocked(err error) *core.QueueEnded {
	ended := &core.QueueEnded{Error: err, Session: q.session, Timestamp: time.Now()}
	q.session++
	q.running = false
	q.cancelSession()
	q.sessionCtx, q.cancelSession = context.WithCancel(context.Background())
	return ended
}

func (q *Queue) emitEnd(ended *core.QueueEnded) {
	if ended.Error != nil {
		q.logger.Warn("queue ended", "session", ended.Session, "error", ended.Error)
	} else {
		q.logger.Info("queue ended", "session", ended.Session)
	}
	q.emit(ended)
}
