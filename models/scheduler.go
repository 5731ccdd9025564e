package models

import (
	"time"
)

// SchedulerConfig is the persisted auto-advance setting. The absolute
// next-run instant is deliberately not stored; a restart re-arms a fresh
// full interval.
type SchedulerConfig struct {
	ID              int       `db:"id"`
	Enabled         bool      `db:"enabled"`
	IntervalMinutes int       `db:"interval_minutes"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// SchedulerStatus is the live view of the auto-advance timer
type SchedulerStatus struct {
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"interval_minutes"`
	NextRunAt       *time.Time `json:"next_run_at,omitempty"`
	Paused          bool       `json:"paused"`
	Running         bool       `json:"running"`
}
