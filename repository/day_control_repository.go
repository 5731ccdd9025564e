package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// DayControlRepository implements the DayControlRepository interface
type DayControlRepository struct {
	q queryable
}

// NewDayControlRepository creates a new day control repository
func NewDayControlRepository(db *database.DB) *DayControlRepository {
	return &DayControlRepository{q: db.Pool}
}

// newDayControlRepositoryWithTx creates a new day control repository with a transaction
func newDayControlRepositoryWithTx(tx queryable) *DayControlRepository {
	return &DayControlRepository{q: tx}
}

const dayControlColumns = `
	id, current_day, total_days, is_active, is_paused, paused_remaining_ms,
	simulation_started_at, last_day_change_at, created_at, updated_at
`

func scanDayControl(row pgx.Row) (*models.DayControl, error) {
	var dc models.DayControl
	err := row.Scan(
		&dc.ID,
		&dc.CurrentDay,
		&dc.TotalDays,
		&dc.IsActive,
		&dc.IsPaused,
		&dc.PausedRemainingMs,
		&dc.SimulationStartedAt,
		&dc.LastDayChangeAt,
		&dc.CreatedAt,
		&dc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// Get retrieves the day control record, or nil if it was never created
func (r *DayControlRepository) Get(ctx context.Context) (*models.DayControl, error) {
	query := `SELECT ` + dayControlColumns + ` FROM day_control WHERE id = 1`

	dc, err := scanDayControl(r.q.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}
	return dc, nil
}

// Create creates the singleton record in NOT_STARTED state
func (r *DayControlRepository) Create(ctx context.Context, totalDays int) (*models.DayControl, error) {
	query := `
		INSERT INTO day_control (id, current_day, total_days, is_active, is_paused)
		VALUES (1, 0, $1, FALSE, FALSE)
		RETURNING ` + dayControlColumns

	dc, err := scanDayControl(r.q.QueryRow(ctx, query, totalDays))
	if err != nil {
		return nil, fmt.Errorf("failed to create day control: %w", err)
	}
	return dc, nil
}

// MarkStarted moves the record to day 1 and stamps the start timestamps
func (r *DayControlRepository) MarkStarted(ctx context.Context) error {
	query := `
		UPDATE day_control
		SET current_day = 1,
		    is_active = TRUE,
		    is_paused = FALSE,
		    paused_remaining_ms = NULL,
		    simulation_started_at = NOW(),
		    last_day_change_at = NOW(),
		    updated_at = NOW()
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to mark simulation started: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("day control record not found")
	}
	return nil
}

// IncrementDay advances current_day by one, guarded by the day value the
// caller just read. Under read committed, the loser of a concurrent race
// re-evaluates the WHERE clause against the winner's committed row and
// matches nothing, so exactly one of two same-day advances succeeds.
func (r *DayControlRepository) IncrementDay(ctx context.Context, fromDay int) (int, error) {
	query := `
		UPDATE day_control
		SET current_day = current_day + 1,
		    last_day_change_at = NOW(),
		    updated_at = NOW()
		WHERE id = 1
		  AND is_active
		  AND current_day = $1
		  AND current_day < total_days
		RETURNING current_day
	`

	var newDay int
	err := r.q.QueryRow(ctx, query, fromDay).Scan(&newDay)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment day: %w", err)
	}
	return newDay, nil
}

// SetActive flips the active flag
func (r *DayControlRepository) SetActive(ctx context.Context, active bool) error {
	query := `
		UPDATE day_control
		SET is_active = $1, is_paused = FALSE, updated_at = NOW()
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("day control record not found")
	}
	return nil
}

// SetPaused flips the paused flag and stores the frozen countdown
func (r *DayControlRepository) SetPaused(ctx context.Context, paused bool, remainingMs *int64) error {
	query := `
		UPDATE day_control
		SET is_paused = $1, paused_remaining_ms = $2, updated_at = NOW()
		WHERE id = 1 AND is_active
	`

	result, err := r.q.Exec(ctx, query, paused, remainingMs)
	if err != nil {
		return fmt.Errorf("failed to set paused flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("day control record not found or not active")
	}
	return nil
}

// Reinitialize restores the record to NOT_STARTED
func (r *DayControlRepository) Reinitialize(ctx context.Context) error {
	query := `
		UPDATE day_control
		SET current_day = 0,
		    is_active = FALSE,
		    is_paused = FALSE,
		    paused_remaining_ms = NULL,
		    simulation_started_at = NULL,
		    last_day_change_at = NULL,
		    updated_at = NOW()
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to reinitialize day control: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("day control record not found")
	}
	return nil
}
