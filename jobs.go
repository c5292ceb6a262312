// Package jobs provides an in-process asynchronous job queue with bounded
// concurrency, per-job timeouts and an ordered result collection.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	q := jobs.New(jobs.WithConcurrency(2), jobs.WithResults())
//	q.Push(jobs.NewTask(func(ctx context.Context) (any, error) {
//	    return fetch(ctx)
//	}))
//	results, err := q.Run(ctx)
//
// Jobs are pulled from the front of the pending list and each reports its
// outcome exactly once through the Next callback it is handed. An error
// ends the queue unless fail-fast is disabled; a timeout does not.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/future"
	"github.com/jdziat/simple-async-jobs/pkg/jobctx"
	"github.com/jdziat/simple-async-jobs/pkg/queue"
	"github.com/jdziat/simple-async-jobs/pkg/retry"
	"github.com/jdziat/simple-async-jobs/pkg/schedule"
	"github.com/jdziat/simple-async-jobs/pkg/security"
	"github.com/jdziat/simple-async-jobs/pkg/stats"
	"github.com/jdziat/simple-async-jobs/pkg/storage"
)

type (
	// Job is a unit of asynchronous work.
	Job = core.Job

	// Next reports the outcome of a job. Only the first call counts.
	Next = core.Next

	// Func is the body of a job.
	Func = core.Func

	// JobOption configures a Job.
	JobOption = core.JobOption

	// Event is the interface for all queue events.
	Event = core.Event

	// EventKind names a lifecycle event.
	EventKind = core.EventKind

	// JobStarted is emitted when a job is admitted.
	JobStarted = core.JobStarted

	// JobSucceeded is emitted when a job completes without error.
	JobSucceeded = core.JobSucceeded

	// JobFailed is emitted when a job reports an error.
	JobFailed = core.JobFailed

	// JobTimedOut is emitted when a job exceeds its timeout.
	JobTimedOut = core.JobTimedOut

	// QueueEnded is emitted once per session when the queue ends.
	QueueEnded = core.QueueEnded

	// PanicError wraps a value recovered from a panicking job body.
	PanicError = core.PanicError

	// Queue runs jobs with bounded concurrency.
	Queue = queue.Queue

	// Option modifies Options.
	Option = queue.Option

	// Options holds queue configuration.
	Options = queue.Options

	// Listener receives queue events.
	Listener = queue.Listener

	// EndCallback is invoked once when a started session ends.
	EndCallback = queue.EndCallback

	// Storage journals events and stat buckets.
	Storage = core.Storage

	// EventRecord is a journaled event.
	EventRecord = core.EventRecord

	// JobStat is a per-queue stat bucket.
	JobStat = core.JobStat

	// StatCounters holds the counters added to a stat bucket.
	StatCounters = core.StatCounters

	// EventFilter narrows ListEvents.
	EventFilter = core.EventFilter

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// PoolOption configures the database connection pool.
	PoolOption = storage.PoolOption

	// Schedule defines when a job should run next.
	Schedule = schedule.Schedule

	// Scheduler pushes jobs onto a queue on a schedule.
	Scheduler = schedule.Scheduler

	// Collector journals queue events and aggregates stats.
	Collector = stats.Collector

	// RetryConfig holds configuration for retry with backoff.
	RetryConfig = retry.Config
)

// Future is a value that settles once, either resolved or rejected.
type Future[T any] = future.Future[T]

// Event kinds
const (
	EventStart   = core.EventStart
	EventSuccess = core.EventSuccess
	EventError   = core.EventError
	EventTimeout = core.EventTimeout
	EventEnd     = core.EventEnd
)

// Unlimited is the concurrency used when none is configured.
const Unlimited = queue.Unlimited

// Security limits
const (
	MaxJobNameLength      = security.MaxJobNameLength
	MaxQueueNameLength    = security.MaxQueueNameLength
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrAlreadyStarted    = core.ErrAlreadyStarted
	ErrInvalidJobName    = core.ErrInvalidJobName
	ErrJobNameTooLong    = core.ErrJobNameTooLong
	ErrInvalidQueueName  = core.ErrInvalidQueueName
	ErrQueueNameTooLong  = core.ErrQueueNameTooLong
	ErrNoStorage         = core.ErrNoStorage
	ErrDuplicateSchedule = core.ErrDuplicateSchedule
	ErrInvalidSchedule   = core.ErrInvalidSchedule
	ErrRejected          = future.ErrRejected
)

// New creates a queue. It panics if the configured name is invalid.
func New(opts ...Option) *Queue {
	return queue.New(opts...)
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return queue.NewOptions()
}

// NewJob wraps a callback-style body.
func NewJob(fn Func, opts ...JobOption) *Job {
	return core.NewJob(fn, opts...)
}

// NewTask wraps a function returning a value and an error.
func NewTask(fn func(ctx context.Context) (any, error), opts ...JobOption) *Job {
	return core.NewTask(fn, opts...)
}

// NewPromiseJob wraps a function returning a Future.
func NewPromiseJob(fn func(ctx context.Context) *Future[any], opts ...JobOption) *Job {
	return core.NewPromiseJob(fn, opts...)
}

// Queue option functions

// WithName sets the queue name used in logs and the journal.
func WithName(name string) Option {
	return queue.WithName(name)
}

// WithConcurrency sets the number of jobs that may run at once.
func WithConcurrency(n int) Option {
	return queue.WithConcurrency(n)
}

// WithTimeout sets the default per-job timeout.
func WithTimeout(d time.Duration) Option {
	return queue.WithTimeout(d)
}

// WithAutostart starts admission as soon as jobs are added.
func WithAutostart(enabled bool) Option {
	return queue.WithAutostart(enabled)
}

// WithResults collects job results in admission order.
func WithResults() Option {
	return queue.WithResults()
}

// WithFailFast controls whether a job error ends the queue.
func WithFailFast(enabled bool) Option {
	return queue.WithFailFast(enabled)
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return queue.WithLogger(l)
}

// Job option functions

// JobTimeout overrides the queue timeout for one job.
func JobTimeout(d time.Duration) JobOption {
	return core.WithTimeout(d)
}

// JobName names a job.
func JobName(name string) JobOption {
	return core.WithName(name)
}

// JobID sets the job ID instead of a generated one.
func JobID(id string) JobOption {
	return core.WithID(id)
}

// Storage functions

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewGormStorageWithPool configures the connection pool and creates storage.
func NewGormStorageWithPool(db *gorm.DB, opts ...PoolOption) (*GormStorage, error) {
	return storage.NewGormStorageWithPool(db, opts...)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression.
func Cron(expr string) (Schedule, error) {
	return schedule.Cron(expr)
}

// MustCron is like Cron but panics on an invalid expression.
func MustCron(expr string) Schedule {
	return schedule.MustCron(expr)
}

// NewScheduler creates a scheduler that pushes onto q.
func NewScheduler(q *Queue, opts ...schedule.SchedulerOption) *Scheduler {
	return schedule.NewScheduler(q, opts...)
}

// NewCollector creates a stats collector for q.
func NewCollector(q *Queue, store Storage, opts ...stats.Option) *Collector {
	return stats.NewCollector(q, store, opts...)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}

// Retrying wraps a task body so it is retried with backoff before an
// error reaches the queue.
func Retrying(cfg RetryConfig, fn func(ctx context.Context) (any, error)) func(ctx context.Context) (any, error) {
	return retry.Wrap(cfg, fn)
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return retry.Permanent(err)
}

// ValidateJobName validates a job name.
func ValidateJobName(name string) error {
	return security.ValidateJobName(name)
}

// ValidateQueueName validates a queue name.
func ValidateQueueName(name string) error {
	return security.ValidateQueueName(name)
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}

// JobFromContext returns the running Job from ctx, or nil outside a job body.
func JobFromContext(ctx context.Context) *Job {
	return jobctx.JobFromContext(ctx)
}

// JobIDFromContext returns the running job ID, or an empty string.
func JobIDFromContext(ctx context.Context) string {
	return jobctx.JobIDFromContext(ctx)
}

// QueueNameFromContext returns the name of the queue running the job.
func QueueNameFromContext(ctx context.Context) string {
	return jobctx.QueueNameFromContext(ctx)
}

// SessionFromContext returns the session the running job belongs to.
func SessionFromContext(ctx context.Context) (uint64, bool) {
	return jobctx.SessionFromContext(ctx)
}
