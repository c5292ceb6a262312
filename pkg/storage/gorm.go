package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/security"
)

// DefaultEventLimit caps ListEvents when the filter sets no limit.
const DefaultEventLimit = 100

// GormStorage implements core.Storage using GORM.
// Times are stored in UTC so SQLite's text comparison orders them correctly.
type GormStorage struct {
	db *gorm.DB
}

var _ core.Storage = (*GormStorage)(nil)

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying database handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage is backed by SQLite.
func (s *GormStorage) IsSQLite() bool {
	return s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.EventRecord{}, &core.JobStat{})
}

// RecordEvent appends rec to the journal. Missing IDs and timestamps are
// filled in and the error text is sanitized.
func (s *GormStorage) RecordEvent(ctx context.Context, rec *core.EventRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Queue == "" {
		rec.Queue = "default"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Error = security.SanitizeErrorMessage(rec.Error)
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListEvents returns journaled events matching filter, newest first.
func (s *GormStorage) ListEvents(ctx context.Context, filter core.EventFilter) ([]*core.EventRecord, error) {
	q := s.db.WithContext(ctx).Model(&core.EventRecord{})

	if filter.Queue != "" {
		q = q.Where("queue = ?", filter.Queue)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.JobID != "" {
		q = q.Where("job_id = ?", filter.JobID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since.UTC())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	var records []*core.EventRecord
	err := q.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// CountEvents returns the number of journaled events per kind. An empty
// queue counts across all queues.
func (s *GormStorage) CountEvents(ctx context.Context, queue string) (map[core.EventKind]int64, error) {
	type row struct {
		Kind  string
		Count int64
	}
	var rows []row

	q := s.db.WithContext(ctx).
		Model(&core.EventRecord{}).
		Select("kind, count(*) as count")
	if queue != "" {
		q = q.Where("queue = ?", queue)
	}
	if err := q.Group("kind").Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[core.EventKind]int64, len(rows))
	for _, r := range rows {
		counts[core.EventKind(r.Kind)] = r.Count
	}
	return counts, nil
}

// PruneEvents deletes events recorded before the given time.
func (s *GormStorage) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&core.EventRecord{})
	return result.RowsAffected, result.Error
}

// UpsertStatCounters adds c to the bucket for queue at ts, truncated to the minute.
func (s *GormStorage) UpsertStatCounters(ctx context.Context, queue string, ts time.Time, c core.StatCounters) error {
	if c.IsZero() {
		return nil
	}
	ts = ts.UTC().Truncate(time.Minute)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing core.JobStat
		err := tx.Where("queue = ? AND timestamp = ?", queue, ts).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&core.JobStat{
				Queue:     queue,
				Timestamp: ts,
				Started:   c.Started,
				Succeeded: c.Succeeded,
				Failed:    c.Failed,
				TimedOut:  c.TimedOut,
				Ended:     c.Ended,
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&existing).Updates(map[string]any{
			"started":   gorm.Expr("started + ?", c.Started),
			"succeeded": gorm.Expr("succeeded + ?", c.Succeeded),
			"failed":    gorm.Expr("failed + ?", c.Failed),
			"timed_out": gorm.Expr("timed_out + ?", c.TimedOut),
			"ended":     gorm.Expr("ended + ?", c.Ended),
		}).Error
	})
}

// GetStatsHistory returns stat buckets in time order. Zero bounds and an
// empty queue are not filtered on.
func (s *GormStorage) GetStatsHistory(ctx context.Context, queue string, since, until time.Time) ([]core.JobStat, error) {
	var stats []core.JobStat
	q := s.db.WithContext(ctx).Order("timestamp ASC")

	if queue != "" {
		q = q.Where("queue = ?", queue)
	}
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since.UTC())
	}
	if !until.IsZero() {
		q = q.Where("timestamp <= ?", until.UTC())
	}

	return stats, q.Find(&stats).Error
}

// PruneStats deletes stat buckets older than the given time.
func (s *GormStorage) PruneStats(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("timestamp < ?", before.UTC()).Delete(&core.JobStat{})
	return result.RowsAffected, result.Error
}
