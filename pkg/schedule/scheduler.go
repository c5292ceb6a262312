package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/security"
)

// Pusher accepts due jobs. *queue.Queue satisfies it.
type Pusher interface {
	Push(jobs ...*core.Job) int
}

// Factory builds a fresh job for each run. Jobs cannot be reused across
// runs, so the Scheduler asks for a new one every time an entry is due.
type Factory func() *core.Job

type entry struct {
	schedule Schedule
	factory  Factory
	lastRun  time.Time
}

// Scheduler pushes jobs into a Pusher on their schedules. An entry that has
// never run is due on the first tick.
type Scheduler struct {
	pusher   Pusher
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// SchedulerOption configures a Scheduler.
type SchedulerOption interface {
	applyScheduler(*Scheduler)
}

type schedulerOptionFunc func(*Scheduler)

func (f schedulerOptionFunc) applyScheduler(s *Scheduler) { f(s) }

// WithTickInterval sets how often Start checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	})
}

// WithSchedulerLogger sets the logger. Defaults to slog.Default().
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) {
		s.logger = l
	})
}

// NewScheduler creates a Scheduler feeding p.
func NewScheduler(p Pusher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pusher:   p,
		interval: 100 * time.Millisecond,
		logger:   slog.Default(),
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt.applyScheduler(s)
	}
	return s
}

// Add registers factory to run on sched under name.
func (s *Scheduler) Add(name string, sched Schedule, factory Factory) error {
	if name == "" {
		return core.ErrInvalidJobName
	}
	if err := security.ValidateJobName(name); err != nil {
		return err
	}
	if sched == nil || factory == nil {
		return fmt.Errorf("%w: %s needs a schedule and a factory", core.ErrInvalidSchedule, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", core.ErrDuplicateSchedule, name)
	}
	s.entries[name] = &entry{schedule: sched, factory: factory}
	return nil
}

// Remove unregisters name and reports whether it existed.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	return ok
}

// Names returns the registered entry names, sorted.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tick pushes a job for every entry due at now and returns how many were pushed.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	names := make([]string, 0, len(s.entries))
	for name, e := range s.entries {
		nextRun := e.schedule.Next(e.lastRun)
		if now.After(nextRun) || now.Equal(nextRun) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	factories := make([]Factory, len(names))
	for i, name := range names {
		e := s.entries[name]
		e.lastRun = now
		factories[i] = e.factory
	}
	s.mu.Unlock()

	jobs := make([]*core.Job, 0, len(names))
	for i, factory := range factories {
		job := factory()
		if job == nil {
			s.logger.Warn("schedule factory returned no job", "name", names[i])
			continue
		}
		if job.Name == "" {
			job.Name = names[i]
		}
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return 0
	}
	s.pusher.Push(jobs...)
	s.logger.Debug("scheduled jobs pushed", "count", len(jobs))
	return len(jobs)
}

// Start ticks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}
