// Package ui provides an embeddable JSON API for monitoring and steering a queue.
package ui

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures the UI handler.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	middleware  func(http.Handler) http.Handler
	logger      *slog.Logger
	statsWindow time.Duration
}

// WithMiddleware wraps the handler with middleware (auth, logging, etc.).
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return optionFunc(func(c *config) {
		c.middleware = mw
	})
}

// WithLogger sets the logger used for request errors. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = l
	})
}

// WithStatsWindow sets how far back GET /stats looks when no "since" is
// given. Default: 1 hour.
func WithStatsWindow(d time.Duration) Option {
	return optionFunc(func(c *config) {
		if d > 0 {
			c.statsWindow = d
		}
	})
}
