// Package security provides validation, sanitization, and limits for the jobs package.
//
// This package includes:
//   - Input validation for job names, queue names and schedule entry names
//   - Error message sanitization before errors are written to the journal
//   - Clamping functions for concurrency and timeouts
//   - Security-related constants defining maximum sizes
//
// Most users should import the root package github.com/jdziat/simple-async-jobs
// which re-exports these functions.
package security
