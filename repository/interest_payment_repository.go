package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"
)

// InterestPaymentRepository implements the InterestPaymentRepository interface
type InterestPaymentRepository struct {
	q queryable
}

// NewInterestPaymentRepository creates a new interest payment repository
func NewInterestPaymentRepository(db *database.DB) *InterestPaymentRepository {
	return &InterestPaymentRepository{q: db.Pool}
}

// newInterestPaymentRepositoryWithTx creates a new interest payment repository with a transaction
func newInterestPaymentRepositoryWithTx(tx queryable) *InterestPaymentRepository {
	return &InterestPaymentRepository{q: tx}
}

// Create appends one interest payment row. The unique constraint on
// (participant_id, day_number) rejects a second credit for the same day.
func (r *InterestPaymentRepository) Create(ctx context.Context, payment *models.InterestPayment) error {
	query := `
		INSERT INTO interest_payments
		(participant_id, broker_id, day_number, portfolio_value, interest_rate,
		 interest_amount, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		payment.ParticipantID,
		payment.BrokerID,
		payment.DayNumber,
		payment.PortfolioValue,
		payment.InterestRate,
		payment.InterestAmount,
		payment.BalanceBefore,
		payment.BalanceAfter,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record interest payment for participant %d day %d: %w",
			payment.ParticipantID, payment.DayNumber, err)
	}

	return nil
}

// GetByParticipant returns recent interest payments for a participant
func (r *InterestPaymentRepository) GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.InterestPayment, error) {
	query := `
		SELECT id, participant_id, broker_id, day_number, portfolio_value,
		       interest_rate, interest_amount, balance_before, balance_after, created_at
		FROM interest_payments
		WHERE participant_id = $1
		ORDER BY day_number DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get interest payments for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	var payments []*models.InterestPayment
	for rows.Next() {
		var p models.InterestPayment
		err := rows.Scan(
			&p.ID,
			&p.ParticipantID,
			&p.BrokerID,
			&p.DayNumber,
			&p.PortfolioValue,
			&p.InterestRate,
			&p.InterestAmount,
			&p.BalanceBefore,
			&p.BalanceAfter,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interest payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interest payments: %w", err)
	}

	return payments, nil
}

// DeleteAll removes every interest payment
func (r *InterestPaymentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM interest_payments`); err != nil {
		return fmt.Errorf("failed to delete interest payments: %w", err)
	}
	return nil
}
