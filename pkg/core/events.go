package core

import "time"

// EventKind names a lifecycle event.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventSuccess EventKind = "success"
	EventError   EventKind = "error"
	EventTimeout EventKind = "timeout"
	EventEnd     EventKind = "end"
)

// Event is the interface for all queue events.
type Event interface {
	Kind() EventKind
	eventMarker()
}

// JobStarted is emitted when a job is admitted.
type JobStarted struct {
	Job       *Job
	Session   uint64
	Timestamp time.Time
}

func (*JobStarted) Kind() EventKind { return EventStart }
func (*JobStarted) eventMarker()    {}

// JobSucceeded is emitted when a job completes without error.
type JobSucceeded struct {
	Job       *Job
	Result    []any
	Session   uint64
	Timestamp time.Time
}

func (*JobSucceeded) Kind() EventKind { return EventSuccess }
func (*JobSucceeded) eventMarker()    {}

// JobFailed is emitted when a job reports an error.
type JobFailed struct {
	Job       *Job
	Error     error
	Session   uint64
	Timestamp time.Time
}

func (*JobFailed) Kind() EventKind { return EventError }
func (*JobFailed) eventMarker()    {}

// JobTimedOut is emitted when a job's timer fires before it completes.
// Listeners may call Next to supply the job's outcome themselves.
type JobTimedOut struct {
	Job       *Job
	Next      Next
	Session   uint64
	Timestamp time.Time
}

func (*JobTimedOut) Kind() EventKind { return EventTimeout }
func (*JobTimedOut) eventMarker()    {}

// QueueEnded is emitted when a session ends, either drained or aborted.
// Session is the session that ended.
type QueueEnded struct {
	Error     error
	Session   uint64
	Timestamp time.Time
}

func (*QueueEnded) Kind() EventKind { return EventEnd }
func (*QueueEnded) eventMarker()    {}

// JobOf returns the job an event refers to, or nil for QueueEnded.
func JobOf(e Event) *Job {
	switch ev := e.(type) {
	case *JobStarted:
		return ev.Job
	case *JobSucceeded:
		return ev.Job
	case *JobFailed:
		return ev.Job
	case *JobTimedOut:
		return ev.Job
	}
	return nil
}

// ErrorOf returns the error carried by an event, if any.
func ErrorOf(e Event) error {
	switch ev := e.(type) {
	case *JobFailed:
		return ev.Error
	case *QueueEnded:
		return ev.Error
	}
	return nil
}

// SessionOf returns the session an event belongs to.
func SessionOf(e Event) uint64 {
	switch ev := e.(type) {
	case *JobStarted:
		return ev.Session
	case *JobSucceeded:
		return ev.Session
	case *JobFailed:
		return ev.Session
	case *JobTimedOut:
		return ev.Session
	case *QueueEnded:
		return ev.Session
	}
	return 0
}

// TimestampOf returns when an event was emitted.
func TimestampOf(e Event) time.Time {
	switch ev := e.(type) {
	case *JobStarted:
		return ev.Timestamp
	case *JobSucceeded:
		return ev.Timestamp
	case *JobFailed:
		return ev.Timestamp
	case *JobTimedOut:
		return ev.Timestamp
	case *QueueEnded:
		return ev.Timestamp
	}
	return time.Time{}
}
