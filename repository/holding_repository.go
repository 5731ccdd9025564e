package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// HoldingRepository implements the HoldingRepository interface
type HoldingRepository struct {
	q queryable
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *database.DB) *HoldingRepository {
	return &HoldingRepository{q: db.Pool}
}

// newHoldingRepositoryWithTx creates a new holding repository with a transaction
func newHoldingRepositoryWithTx(tx queryable) *HoldingRepository {
	return &HoldingRepository{q: tx}
}

// GetByParticipant returns all holdings for a participant
func (r *HoldingRepository) GetByParticipant(ctx context.Context, participantID int64) ([]*models.PortfolioHolding, error) {
	query := `
		SELECT id, participant_id, company_id, quantity, average_buy_price, updated_at
		FROM portfolio_holdings
		WHERE participant_id = $1
		ORDER BY company_id
	`

	rows, err := r.q.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	var holdings []*models.PortfolioHolding
	for rows.Next() {
		var h models.PortfolioHolding
		err := rows.Scan(
			&h.ID,
			&h.ParticipantID,
			&h.CompanyID,
			&h.Quantity,
			&h.AverageBuyPrice,
			&h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return holdings, nil
}

// GetByParticipantAndCompany retrieves one holding, or nil if flat
func (r *HoldingRepository) GetByParticipantAndCompany(ctx context.Context, participantID, companyID int64) (*models.PortfolioHolding, error) {
	query := `
		SELECT id, participant_id, company_id, quantity, average_buy_price, updated_at
		FROM portfolio_holdings
		WHERE participant_id = $1 AND company_id = $2
	`

	var h models.PortfolioHolding
	err := r.q.QueryRow(ctx, query, participantID, companyID).Scan(
		&h.ID,
		&h.ParticipantID,
		&h.CompanyID,
		&h.Quantity,
		&h.AverageBuyPrice,
		&h.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding for participant %d company %d: %w",
			participantID, companyID, err)
	}

	return &h, nil
}

// Upsert inserts a holding or replaces its quantity and average cost
func (r *HoldingRepository) Upsert(ctx context.Context, holding *models.PortfolioHolding) error {
	query := `
		INSERT INTO portfolio_holdings (participant_id, company_id, quantity, average_buy_price, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (participant_id, company_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    average_buy_price = EXCLUDED.average_buy_price,
		    updated_at = NOW()
		RETURNING id, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		holding.ParticipantID,
		holding.CompanyID,
		holding.Quantity,
		holding.AverageBuyPrice,
	).Scan(&holding.ID, &holding.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert holding for participant %d company %d: %w",
			holding.ParticipantID, holding.CompanyID, err)
	}

	return nil
}

// UpdateQuantity sets a holding's quantity
func (r *HoldingRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := `
		UPDATE portfolio_holdings
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update holding %d quantity: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("holding %d not found", id)
	}
	return nil
}

// Delete removes a holding row
func (r *HoldingRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM portfolio_holdings WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("holding %d not found", id)
	}
	return nil
}

// DeleteAll removes every holding
func (r *HoldingRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM portfolio_holdings`); err != nil {
		return fmt.Errorf("failed to delete holdings: %w", err)
	}
	return nil
}
