package core

import (
	"errors"
	"fmt"
)

// Queue and validation errors
var (
	ErrAlreadyStarted   = errors.New("jobs: already started")
	ErrInvalidJobName   = errors.New("jobs: invalid job name (must be alphanumeric, start with letter)")
	ErrJobNameTooLong   = errors.New("jobs: job name too long")
	ErrInvalidQueueName = errors.New("jobs: invalid queue name")
	ErrQueueNameTooLong = errors.New("jobs: queue name too long")
	ErrNoStorage        = errors.New("jobs: no storage configured")
)

// Scheduling errors
var (
	ErrDuplicateSchedule = errors.New("jobs: schedule already registered")
	ErrInvalidSchedule   = errors.New("jobs: invalid schedule")
)

// PanicError wraps a value recovered from a panicking job body.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
