package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// SchedulerConfigRepository implements the SchedulerConfigRepository interface
type SchedulerConfigRepository struct {
	q queryable
}

// NewSchedulerConfigRepository creates a new scheduler config repository
func NewSchedulerConfigRepository(db *database.DB) *SchedulerConfigRepository {
	return &SchedulerConfigRepository{q: db.Pool}
}

// newSchedulerConfigRepositoryWithTx creates a new scheduler config repository with a transaction
func newSchedulerConfigRepositoryWithTx(tx queryable) *SchedulerConfigRepository {
	return &SchedulerConfigRepository{q: tx}
}

// Get retrieves the scheduler config, or nil if never configured
func (r *SchedulerConfigRepository) Get(ctx context.Context) (*models.SchedulerConfig, error) {
	query := `
		SELECT id, enabled, interval_minutes, updated_at
		FROM scheduler_config
		WHERE id = 1
	`

	var cfg models.SchedulerConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.ID,
		&cfg.Enabled,
		&cfg.IntervalMinutes,
		&cfg.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduler config: %w", err)
	}

	return &cfg, nil
}

// Upsert creates or updates the singleton config row
func (r *SchedulerConfigRepository) Upsert(ctx context.Context, enabled bool, intervalMinutes int) (*models.SchedulerConfig, error) {
	query := `
		INSERT INTO scheduler_config (id, enabled, interval_minutes, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    interval_minutes = EXCLUDED.interval_minutes,
		    updated_at = NOW()
		RETURNING id, enabled, interval_minutes, updated_at
	`

	var cfg models.SchedulerConfig
	err := r.q.QueryRow(ctx, query, enabled, intervalMinutes).Scan(
		&cfg.ID,
		&cfg.Enabled,
		&cfg.IntervalMinutes,
		&cfg.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert scheduler config: %w", err)
	}

	return &cfg, nil
}
