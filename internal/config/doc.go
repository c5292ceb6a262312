// Package config loads settings for the jobs daemon from an optional
// config file and JOBS_-prefixed environment variables.
//
// Environment variables take precedence over the file. Nested keys map to
// variables by upper-casing and replacing dots with underscores, so
// queue.concurrency is read from JOBS_QUEUE_CONCURRENCY.
package config
