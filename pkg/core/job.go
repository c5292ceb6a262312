// Package core provides the domain models and interfaces for the jobs package.
package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/simple-async-jobs/pkg/future"
)

// Next reports a job's outcome. A non-nil err marks the job failed;
// otherwise values become the job's result.
// Only the first call made within the job's session has any effect.
type Next func(err error, values ...any)

// Func is the body of a job. It must eventually call next, either before
// returning or later from any goroutine.
type Func func(ctx context.Context, next Next)

// Job represents a unit of asynchronous work submitted to a queue.
type Job struct {
	ID   string
	Name string

	fn         Func
	timeout    time.Duration
	hasTimeout bool
	started    atomic.Bool
}

// JobOption configures a Job.
type JobOption interface {
	ApplyJob(*Job)
}

type jobOptionFunc func(*Job)

func (f jobOptionFunc) ApplyJob(j *Job) { f(j) }

// WithTimeout overrides the queue's default timeout for this job.
// A zero duration disables the timeout for this job.
func WithTimeout(d time.Duration) JobOption {
	return jobOptionFunc(func(j *Job) {
		if d < 0 {
			d = 0
		}
		j.timeout = d
		j.hasTimeout = true
	})
}

// WithName sets a human readable label, used in logs and the journal.
func WithName(name string) JobOption {
	return jobOptionFunc(func(j *Job) {
		j.Name = name
	})
}

// WithID replaces the generated job ID.
func WithID(id string) JobOption {
	return jobOptionFunc(func(j *Job) {
		j.ID = id
	})
}

// NewJob creates a callback-form job.
func NewJob(fn Func, opts ...JobOption) *Job {
	j := &Job{
		ID: uuid.New().String(),
		fn: fn,
	}
	for _, opt := range opts {
		opt.ApplyJob(j)
	}
	return j
}

// NewPromiseJob creates a job whose outcome is the settlement of the Future
// returned by fn. A nil Future means the job never completes on its own.
func NewPromiseJob(fn func(ctx context.Context) *future.Future[any], opts ...JobOption) *Job {
	return NewJob(func(ctx context.Context, next Next) {
		f := fn(ctx)
		if f == nil {
			return
		}
		f.Then(func(v any, err error) {
			if err != nil {
				next(err)
				return
			}
			next(nil, v)
		})
	}, opts...)
}

// NewTask creates a job that runs fn on its own goroutine.
// A panic in fn is reported as a *PanicError.
func NewTask(fn func(ctx context.Context) (any, error), opts ...JobOption) *Job {
	return NewJob(func(ctx context.Context, next Next) {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					next(&PanicError{Value: r})
				}
			}()
			v, err := fn(ctx)
			if err != nil {
				next(err)
				return
			}
			next(nil, v)
		}()
	}, opts...)
}

// Run invokes the job body and marks the job started.
func (j *Job) Run(ctx context.Context, next Next) {
	j.started.Store(true)
	if j.fn == nil {
		next(fmt.Errorf("jobs: job %s has no body", j.ID))
		return
	}
	j.fn(ctx, next)
}

// Started reports whether the job has been admitted and run.
func (j *Job) Started() bool {
	return j.started.Load()
}

// Timeout returns the job's own timeout and whether it overrides the queue default.
func (j *Job) Timeout() (time.Duration, bool) {
	return j.timeout, j.hasTimeout
}

// String returns the name if set, otherwise the ID.
func (j *Job) String() string {
	if j.Name != "" {
		return j.Name
	}
	return j.ID
}
