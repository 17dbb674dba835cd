// Package history keeps a sqlite log of past runs.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jpltour/internal/models"
	"jpltour/pkg/notify"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store reads and writes run records.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Run describes one finished run.
type Run struct {
	RunID        string
	Trigger      string
	Session      string
	ReserveState string
	StartedAt    time.Time
	FinishedAt   time.Time
	Result       *notify.RunResult
}

func outcome(o notify.Outcome) models.RunOutcome {
	switch o {
	case notify.OutcomeSuccess:
		return models.RunOutcomeSuccess
	case notify.OutcomeWarnings:
		return models.RunOutcomeWarnings
	default:
		return models.RunOutcomeErrors
	}
}

func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// NewRecord converts r into its database row.
func NewRecord(r Run) (*models.RunRecord, error) {
	res := r.Result
	if res == nil {
		res = &notify.RunResult{}
	}

	notes, err := toJSON(nonNil(res.Notifications))
	if err != nil {
		return nil, err
	}
	warnings, err := toJSON(nonNil(res.Warnings))
	if err != nil {
		return nil, err
	}
	errs, err := toJSON(nonNil(res.Errors))
	if err != nil {
		return nil, err
	}

	return &models.RunRecord{
		RunID:         r.RunID,
		Trigger:       r.Trigger,
		Outcome:       outcome(res.Outcome()),
		Session:       r.Session,
		ReserveState:  r.ReserveState,
		Notifications: notes,
		Warnings:      warnings,
		Errors:        errs,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Duration:      r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Record appends a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	rec, err := NewRecord(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.RunID, err)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	var records []models.RunRecord
	q := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, runID string) (*models.RunRecord, error) {
	var rec models.RunRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &rec, nil
}
