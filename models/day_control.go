package models

import (
	"time"
)

// SimulationState is the derived lifecycle state of the day control record
type SimulationState string

const (
	SimulationStateNotStarted SimulationState = "NOT_STARTED"
	SimulationStateRunning    SimulationState = "RUNNING"
	SimulationStatePaused     SimulationState = "PAUSED"
	SimulationStateEnded      SimulationState = "ENDED"
)

// DayControl is the singleton simulation record. Invariants:
// 0 <= CurrentDay <= TotalDays, and IsPaused implies IsActive.
type DayControl struct {
	ID                  int        `db:"id"`
	CurrentDay          int        `db:"current_day"`
	TotalDays           int        `db:"total_days"`
	IsActive            bool       `db:"is_active"`
	IsPaused            bool       `db:"is_paused"`
	PausedRemainingMs   *int64     `db:"paused_remaining_ms"`
	SimulationStartedAt *time.Time `db:"simulation_started_at"`
	LastDayChangeAt     *time.Time `db:"last_day_change_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// State derives the lifecycle state from the stored flags
func (d *DayControl) State() SimulationState {
	switch {
	case d.IsActive && d.IsPaused:
		return SimulationStatePaused
	case d.IsActive:
		return SimulationStateRunning
	case d.CurrentDay > 0:
		return SimulationStateEnded
	default:
		return SimulationStateNotStarted
	}
}

// AtDayLimit reports whether the simulation has reached its final day
func (d *DayControl) AtDayLimit() bool {
	return d.CurrentDay >= d.TotalDays
}
