// Package schedule provides recurring schedules and a Scheduler that feeds
// due jobs into a queue.
//
// This package includes:
//   - Schedule interface for defining job schedules
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() for cron expression-based schedules
//   - Scheduler, which pushes a fresh job into a queue whenever an entry is due
//
// Most users should import the root package github.com/jdziat/simple-async-jobs
// which re-exports these functions.
package schedule
