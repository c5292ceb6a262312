package queue

import (
	"context"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	intctx "github.com/jdziat/simple-async-jobs/pkg/internal/context"
	"github.com/jdziat/simple-async-jobs/pkg/timers"
)

// completion is the gate between a job and the queue. Its next method is
// the job's Next: only the first call made while the queue is still in
// the admitting session counts.
type completion struct {
	q       *Queue
	job     *core.Job
	session uint64

	results   *resultSet
	resultIdx int

	timer    timers.Handle
	hasTimer bool

	// guarded by q.mu
	settled    bool
	didTimeout bool
}

// admit launches pending jobs while capacity allows. When nothing is
// pending and nothing is in flight the session ends.
func (q *Queue) admit() {
	for {
		q.mu.Lock()
		q.running = true
		if q.inFlight >= q.concurrency {
			q.mu.Unlock()
			return
		}
		job, ok := q.pending.PopFront()
		if !ok {
			var ended *core.QueueEnded
			if q.inFlight == 0 {
				ended = q.finishLocked(nil)
			}
			q.mu.Unlock()
			if ended != nil {
				q.emitEnd(ended)
			}
			return
		}
		c, ctx := q.launchLocked(job)
		q.mu.Unlock()

		// start is emitted before the timer is armed and before the job
		// holds its Next, so no other event for this job can precede it.
		q.logger.Debug("job admitted", "job_id", job.ID, "job_name", job.Name, "session", c.session)
		q.emit(&core.JobStarted{Job: job, Session: c.session, Timestamp: time.Now()})
		if !c.arm() {
			return
		}
		job.Run(ctx, c.next)

		q.mu.Lock()
		more := q.running && q.pending.Len() > 0
		q.mu.Unlock()
		if !more {
			return
		}
	}
}

func (q *Queue) launchLocked(job *core.Job) (*completion, context.Context) {
	c := &completion{
		q:         q,
		job:       job,
		session:   q.session,
		resultIdx: -1,
	}

	if q.results != nil {
		c.results = q.results
		c.resultIdx = q.results.reserve()
	}

	q.inFlight++

	ctx := intctx.WithJobContext(q.sessionCtx, &intctx.JobContext{
		Job:     job,
		Queue:   q.name,
		Session: q.session,
	})
	return c, ctx
}

// arm schedules the job's timeout. It reports false if the session ended
// while start listeners ran, in which case the job is not run.
func (c *completion) arm() bool {
	q := c.q

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.session != c.session {
		return false
	}

	timeout := q.timeout
	if d, ok := c.job.Timeout(); ok {
		timeout = d
	}
	if timeout > 0 {
		c.timer = q.timers.Schedule(timeout, c.expire)
		c.hasTimer = true
	}
	return true
}

func (c *completion) next(err error, values ...any) {
	q := c.q

	q.mu.Lock()
	if c.settled || q.session != c.session {
		q.mu.Unlock()
		return
	}
	c.settled = true
	q.inFlight--
	if c.hasTimer {
		q.timers.Cancel(c.timer)
	}

	var ev core.Event
	switch {
	case err != nil:
		ev = &core.JobFailed{Job: c.job, Error: err, Session: c.session, Timestamp: time.Now()}
	case !c.didTimeout:
		result := make([]any, len(values))
		copy(result, values)
		if c.results != nil {
			c.results.set(c.resultIdx, result)
		}
		ev = &core.JobSucceeded{Job: c.job, Result: result, Session: c.session, Timestamp: time.Now()}
	}
	q.mu.Unlock()

	if ev != nil {
		if err != nil {
			q.logger.Error("job failed", "job_id", c.job.ID, "job_name", c.job.Name, "session", c.session, "error", err)
		} else {
			q.logger.Debug("job succeeded", "job_id", c.job.ID, "job_name", c.job.Name, "session", c.session)
		}
		q.emit(ev)
	}

	q.mu.Lock()
	if q.session != c.session {
		q.mu.Unlock()
		return
	}
	if q.inFlight == 0 && q.pending.Len() == 0 {
		ended := q.finishLocked(nil)
		q.mu.Unlock()
		q.emitEnd(ended)
		return
	}
	running := q.running
	q.mu.Unlock()

	if running {
		q.admit()
	}
}

// expire runs when the job's timer fires. The job is marked timed out
// before listeners run, so from then on only an error can settle it with
// an event; a value, whether from the job or a listener, is dropped.
func (c *completion) expire() {
	q := c.q

	q.mu.Lock()
	if c.settled || q.session != c.session {
		q.mu.Unlock()
		return
	}
	c.didTimeout = true
	q.mu.Unlock()

	q.logger.Warn("job timed out", "job_id", c.job.ID, "job_name", c.job.Name, "session", c.session)
	q.emit(&core.JobTimedOut{Job: c.job, Next: c.next, Session: c.session, Timestamp: time.Now()})
	c.next(nil)
}
