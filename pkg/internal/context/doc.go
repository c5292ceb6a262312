// Package context provides internal context helpers for job execution.
//
// This package is internal and should not be imported directly.
// It carries the running job, its queue name and session through the
// context handed to job bodies.
package context
