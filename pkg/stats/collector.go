// Package stats journals queue events and aggregates them into per-minute
// counters.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/retry"
)

// EventSource is the part of a queue the Collector observes.
type EventSource interface {
	Name() string
	Events() <-chan core.Event
	Unsubscribe(ch <-chan core.Event)
}

// Collector subscribes to a queue's events, journals each one and
// periodically flushes counters to storage.
type Collector struct {
	source    EventSource
	store     core.Storage
	retention time.Duration
	interval  time.Duration
	retry     retry.Config
	logger    *slog.Logger

	mu       sync.Mutex
	counters core.StatCounters
	totals   core.StatCounters
	recorded int64

	// ready is closed once the collector has subscribed to events and is processing.
	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures the Collector.
type Option interface {
	apply(*Collector)
}

type optionFunc func(*Collector)

func (f optionFunc) apply(c *Collector) { f(c) }

// WithRetention sets how long journal rows and stat buckets are kept.
// Zero disables pruning.
func WithRetention(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		c.retention = d
	})
}

// WithFlushInterval sets how often counters are flushed.
func WithFlushInterval(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		if d > 0 {
			c.interval = d
		}
	})
}

// WithRetryConfig sets the backoff used when flushing counters.
func WithRetryConfig(cfg retry.Config) Option {
	return optionFunc(func(c *Collector) {
		c.retry = cfg
	})
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Collector) {
		c.logger = l
	})
}

// NewCollector creates a Collector for source that writes to store.
func NewCollector(source EventSource, store core.Storage, opts ...Option) *Collector {
	c := &Collector{
		source:    source,
		store:     store,
		retention: 7 * 24 * time.Hour,
		interval:  time.Minute,
		retry:     retry.DefaultConfig(),
		logger:    slog.Default(),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	c.logger = c.logger.With("queue", source.Name(), "component", "stats")
	return c
}

// WaitReady blocks until the collector has subscribed to events.
func (c *Collector) WaitReady() {
	<-c.ready
}

// Start consumes events until ctx is cancelled, then flushes what is left.
func (c *Collector) Start(ctx context.Context) {
	events := c.source.Events()
	defer c.source.Unsubscribe(events)

	c.readyOnce.Do(func() { close(c.ready) })

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(events)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.Flush(flushCtx); err != nil {
				c.logger.Error("final stats flush failed", "error", err)
			}
			cancel()
			return
		case e := <-events:
			// Journal writes outlive cancellation so a racing shutdown keeps the event.
			c.handleEvent(context.WithoutCancel(ctx), e)
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				c.logger.Error("stats flush failed", "error", err)
			}
			c.prune(ctx)
		}
	}
}

// drain handles events already buffered when ctx was cancelled.
func (c *Collector) drain(events <-chan core.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case e := <-events:
			c.handleEvent(ctx, e)
		default:
			return
		}
	}
}

func (c *Collector) handleEvent(ctx context.Context, e core.Event) {
	c.count(e)

	rec := &core.EventRecord{
		Queue:     c.source.Name(),
		Kind:      e.Kind(),
		Session:   core.SessionOf(e),
		CreatedAt: core.TimestampOf(e),
	}
	if job := core.JobOf(e); job != nil {
		rec.JobID = job.ID
		rec.JobName = job.Name
	}
	if err := core.ErrorOf(e); err != nil {
		rec.Error = err.Error()
	}

	if err := c.store.RecordEvent(ctx, rec); err != nil {
		c.logger.Error("failed to journal event", "kind", e.Kind(), "job_id", rec.JobID, "error", err)
		return
	}

	c.mu.Lock()
	c.recorded++
	c.mu.Unlock()
}

func (c *Collector) count(e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var delta core.StatCounters
	switch e.(type) {
	case *core.JobStarted:
		delta.Started = 1
	case *core.JobSucceeded:
		delta.Succeeded = 1
	case *core.JobFailed:
		delta.Failed = 1
	case *core.JobTimedOut:
		delta.TimedOut = 1
	case *core.QueueEnded:
		delta.Ended = 1
	}
	add(&c.counters, delta)
	add(&c.totals, delta)
}

func add(dst *core.StatCounters, d core.StatCounters) {
	dst.Started += d.Started
	dst.Succeeded += d.Succeeded
	dst.Failed += d.Failed
	dst.TimedOut += d.TimedOut
	dst.Ended += d.Ended
}

// Totals returns the counters accumulated since the collector was created.
func (c *Collector) Totals() core.StatCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Recorded returns the number of events written to the journal.
func (c *Collector) Recorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recorded
}

// Flush writes accumulated counters to storage, retrying transient
// failures. On failure the counters are kept for the next flush.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.counters
	c.counters = core.StatCounters{}
	c.mu.Unlock()

	if batch.IsZero() {
		return nil
	}

	ts := time.Now().Truncate(time.Minute)
	err := retry.Do(ctx, c.retry, func() error {
		return c.store.UpsertStatCounters(ctx, c.source.Name(), ts, batch)
	})
	if err != nil {
		c.mu.Lock()
		add(&c.counters, batch)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Collector) prune(ctx context.Context) {
	if c.retention <= 0 {
		return
	}
	before := time.Now().Add(-c.retention)
	if _, err := c.store.PruneEvents(ctx, before); err != nil {
		c.logger.Warn("failed to prune events", "error", err)
	}
	if _, err := c.store.PruneStats(ctx, before); err != nil {
		c.logger.Warn("failed to prune stats", "error", err)
	}
}
