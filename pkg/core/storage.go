package core

import (
	"context"
	"time"
)

// EventRecord is a journaled lifecycle event.
type EventRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Queue     string    `gorm:"index;size:255;not null"`
	Kind      EventKind `gorm:"index;size:20;not null"`
	JobID     string    `gorm:"index;size:36"`
	JobName   string    `gorm:"size:255"`
	Session   uint64    `gorm:"default:0"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
}

// JobStat stores per-queue event counters bucketed by minute.
type JobStat struct {
	ID        uint      `gorm:"primaryKey"`
	Queue     string    `gorm:"index:idx_job_stats_queue_ts;size:255;not null"`
	Timestamp time.Time `gorm:"index:idx_job_stats_queue_ts;not null"`
	Started   int64     `gorm:"default:0"`
	Succeeded int64     `gorm:"default:0"`
	Failed    int64     `gorm:"default:0"`
	TimedOut  int64     `gorm:"default:0"`
	Ended     int64     `gorm:"default:0"`
}

// StatCounters is an increment applied to a JobStat bucket.
type StatCounters struct {
	Started   int64
	Succeeded int64
	Failed    int64
	TimedOut  int64
	Ended     int64
}

// IsZero reports whether no counter is set.
func (c StatCounters) IsZero() bool {
	return c == StatCounters{}
}

// EventFilter narrows ListEvents. Zero fields are ignored.
type EventFilter struct {
	Queue string
	Kind  EventKind
	JobID string
	Since time.Time
	Limit int
}

// Storage defines the persistence layer for the lifecycle journal.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Journal
	RecordEvent(ctx context.Context, rec *EventRecord) error
	ListEvents(ctx context.Context, filter EventFilter) ([]*EventRecord, error)
	CountEvents(ctx context.Context, queue string) (map[EventKind]int64, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)

	// Stats
	UpsertStatCounters(ctx context.Context, queue string, ts time.Time, c StatCounters) error
	GetStatsHistory(ctx context.Context, queue string, since, until time.Time) ([]JobStat, error)
	PruneStats(ctx context.Context, before time.Time) (int64, error)
}
