package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// CreateBatch appends all rows of one executed batch
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction) error {
	query := `
		INSERT INTO transactions
		(batch_id, participant_id, company_id, broker_id, day_number, type,
		 quantity, price_per_share, total_amount, broker_fee,
		 balance_before, balance_after, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	for _, t := range transactions {
		err := r.q.QueryRow(ctx, query,
			t.BatchID,
			t.ParticipantID,
			t.CompanyID,
			t.BrokerID,
			t.DayNumber,
			t.Type,
			t.Quantity,
			t.PricePerShare,
			t.TotalAmount,
			t.BrokerFee,
			t.BalanceBefore,
			t.BalanceAfter,
			t.Status,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record transaction for participant %d: %w",
				t.ParticipantID, err)
		}
	}

	return nil
}

// HasBatchForDay reports whether the participant already executed a batch
// for the given day
func (r *TransactionRepository) HasBatchForDay(ctx context.Context, participantID int64, day int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE participant_id = $1 AND day_number = $2
		)
	`

	var exists bool
	err := r.q.QueryRow(ctx, query, participantID, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check batch for participant %d day %d: %w",
			participantID, day, err)
	}

	return exists, nil
}

// GetByParticipant returns recent transactions for a participant
func (r *TransactionRepository) GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, batch_id, participant_id, company_id, broker_id, day_number,
		       type, quantity, price_per_share, total_amount, broker_fee,
		       balance_before, balance_after, status, created_at
		FROM transactions
		WHERE participant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID,
			&t.BatchID,
			&t.ParticipantID,
			&t.CompanyID,
			&t.BrokerID,
			&t.DayNumber,
			&t.Type,
			&t.Quantity,
			&t.PricePerShare,
			&t.TotalAmount,
			&t.BrokerFee,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Status,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// DeleteAll removes every transaction
func (r *TransactionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}
