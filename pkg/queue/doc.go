// Package queue provides the Queue type, an in-process asynchronous job
// queue with adjustable concurrency.
//
// This package includes:
//   - Queue: admits pending jobs up to a concurrency limit, enforces
//     per-job timeouts and reports each job's outcome at most once
//   - An array-like surface over not-yet-started jobs (Push, Unshift,
//     Pop, Shift, Splice, Slice, Reverse, IndexOf, LastIndexOf)
//   - Lifecycle listeners and event subscription for monitoring
//   - Option: functional configuration for a Queue
//
// # Sessions
//
// Every admission captures the queue's current session. Ending or draining
// the queue starts a new session, so completions, timers and callbacks that
// belong to an earlier session are ignored.
//
// # Failure policy
//
// By default a single job error ends the queue: pending jobs are discarded
// and the end event carries that error. Use WithFailFast(false) to only
// report job errors through the error event.
//
// Most users should import the root package github.com/jdziat/simple-async-jobs
// which re-exports Queue and all option functions.
package queue
