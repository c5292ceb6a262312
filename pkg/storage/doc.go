// Package storage provides storage implementations for the lifecycle journal.
//
// This package includes:
//   - GormStorage: A GORM-based journal of queue events plus per-minute
//     stat counters, usable with any GORM dialect
//   - PoolConfig: connection pool presets for the journal database
//
// The Storage interface is defined in pkg/core and must be implemented
// by any custom storage backend.
//
// Most users should import the root package github.com/jdziat/simple-async-jobs
// which provides NewGormStorage() to create storage instances.
package storage
