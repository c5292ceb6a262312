// Package core provides the fundamental types and interfaces for the jobs package.
//
// This package contains:
//   - Job, the unit of asynchronous work, and its completion callback Next
//   - Event types emitted over a queue's lifecycle
//   - Error types for job processing
//   - EventRecord and JobStat models, and the Storage interface for the journal
//
// Most users should import the root package github.com/jdziat/simple-async-jobs
// instead of this package directly.
package core
