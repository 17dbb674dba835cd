package models

import (
	"time"

	"gorm.io/datatypes"
)

// RunOutcome is how a run finished.
type RunOutcome string

const (
	RunOutcomeSuccess  RunOutcome = "success"
	RunOutcomeWarnings RunOutcome = "warnings"
	RunOutcomeErrors   RunOutcome = "errors"
)

// RunRecord is one row of the run history.
type RunRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	RunID         string         `gorm:"uniqueIndex;not null" json:"run_id"` // UUID
	Trigger       string         `gorm:"default:cli" json:"trigger"`         // cli or cron
	Outcome       RunOutcome     `gorm:"index" json:"outcome"`
	Session       string         `json:"session"`
	ReserveState  string         `json:"reserve_state"`
	Notifications datatypes.JSON `json:"notifications"` // []notify.Notification
	Warnings      datatypes.JSON `json:"warnings"`      // []string
	Errors        datatypes.JSON `json:"errors"`        // []string
	StartedAt     time.Time      `gorm:"index" json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Duration      int64          `json:"duration"` // Duration in milliseconds
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName returns the table name for RunRecord model
func (RunRecord) TableName() string {
	return "runs"
}
