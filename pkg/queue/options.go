// Package queue provides the Queue orchestrator for the jobs package.
package queue

import (
	"log/slog"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/security"
)

// Unlimited is the default concurrency.
const Unlimited = security.Unlimited

// Options holds configuration for a Queue.
type Options struct {
	Name        string
	Concurrency int
	Timeout     time.Duration
	Autostart   bool
	Results     bool
	FailFast    bool
	Logger      *slog.Logger
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Name:        "default",
		Concurrency: Unlimited,
		FailFast:    true,
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithName sets the queue name used in logs and the journal.
func WithName(name string) Option {
	return optionFunc(func(o *Options) {
		o.Name = name
	})
}

// WithConcurrency sets the maximum number of jobs in flight at once.
// Negative values are clamped to 0, and a queue with concurrency 0 admits nothing.
func WithConcurrency(n int) Option {
	return optionFunc(func(o *Options) {
		o.Concurrency = security.ClampConcurrency(n)
	})
}

// WithTimeout sets the default per-job timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Timeout = security.ClampTimeout(d)
	})
}

// WithAutostart makes Push, Unshift and Splice start processing immediately.
func WithAutostart(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.Autostart = enabled
	})
}

// WithResults enables the ordered result collector.
func WithResults() Option {
	return optionFunc(func(o *Options) {
		o.Results = true
	})
}

// WithFailFast controls the built-in error listener that ends the queue on
// the first job error. Enabled by default.
func WithFailFast(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.FailFast = enabled
	})
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		o.Logger = l
	})
}
