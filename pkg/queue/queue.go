package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/deque"
	"github.com/jdziat/simple-async-jobs/pkg/security"
	"github.com/jdziat/simple-async-jobs/pkg/timers"
)

// Queue runs jobs with bounded concurrency.
//
// All state is guarded by mu, which is never held while job bodies or
// listeners run. Listeners and job bodies may therefore call back into the
// Queue, including End and a job's own Next.
type Queue struct {
	mu          sync.Mutex
	name        string
	concurrency int
	timeout     time.Duration
	autostart   bool
	logger      *slog.Logger

	pending  *deque.Deque[*core.Job]
	inFlight int
	session  uint64
	running  bool
	results  *resultSet
	timers   *timers.Registry

	sessionCtx    context.Context
	cancelSession context.CancelFunc

	// Hooks and event stream
	hooksMu      sync.RWMutex
	listeners    map[core.EventKind][]*listener
	nextListener uint64
	eventSubs    []chan core.Event

	failFastOff func()
}

// New creates a Queue. It panics if the configured name is invalid.
func New(opts ...Option) *Queue {
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	if err := security.ValidateQueueName(o.Name); err != nil {
		panic(fmt.Sprintf("jobs: invalid queue name %q: %v", o.Name, err))
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		name:        o.Name,
		concurrency: o.Concurrency,
		timeout:     o.Timeout,
		autostart:   o.Autostart,
		logger:      logger.With("queue", o.Name),
		pending:     deque.New[*core.Job](),
		timers:      timers.New(),
		listeners:   make(map[core.EventKind][]*listener),
	}
	if o.Results {
		q.results = &resultSet{}
	}
	q.sessionCtx, q.cancelSession = context.WithCancel(context.Background())

	if o.FailFast {
		q.failFastOff = q.OnJobFail(q.endOnError)
	}
	return q
}

func (q *Queue) endOnError(e *core.JobFailed) {
	q.End(e.Error)
}

// SetFailFast enables or disables the built-in listener that ends the
// queue on the first job error.
func (q *Queue) SetFailFast(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case enabled && q.failFastOff == nil:
		q.failFastOff = q.OnJobFail(q.endOnError)
	case !enabled && q.failFastOff != nil:
		q.failFastOff()
		q.failFastOff = nil
	}
}

// FailFast reports whether the built-in error listener is installed.
func (q *Queue) FailFast() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failFastOff != nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Running reports whether the queue is admitting jobs.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Session returns the current session number.
func (q *Queue) Session() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.session
}

// InFlight returns the number of admitted jobs that have not completed.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Concurrency returns the concurrency limit.
func (q *Queue) Concurrency() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.concurrency
}

// SetConcurrency changes the concurrency limit. Raising it on a running
// queue admits pending jobs immediately.
func (q *Queue) SetConcurrency(n int) {
	n = security.ClampConcurrency(n)
	q.mu.Lock()
	q.concurrency = n
	running := q.running
	q.mu.Unlock()

	if running {
		q.admit()
	}
}

// Timeout returns the default per-job timeout.
func (q *Queue) Timeout() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.timeout
}

// PendingTimers returns the number of job timers that have not fired.
func (q *Queue) PendingTimers() int {
	return q.timers.Len()
}
