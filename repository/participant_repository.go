package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ParticipantRepository implements the ParticipantRepository interface
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository with a transaction
func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

const participantColumns = `
	id, name, broker_id, current_balance, starting_balance, is_active,
	created_at, updated_at
`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.BrokerID,
		&p.CurrentBalance,
		&p.StartingBalance,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a participant with equal current and starting balance
func (r *ParticipantRepository) Create(ctx context.Context, name string, brokerID *int64, startingBalance decimal.Decimal) (*models.Participant, error) {
	query := `
		INSERT INTO participants (name, broker_id, current_balance, starting_balance)
		VALUES ($1, $2, $3, $3)
		RETURNING ` + participantColumns

	p, err := scanParticipant(r.q.QueryRow(ctx, query, name, brokerID, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create participant %s: %w", name, err)
	}
	return p, nil
}

// GetByID retrieves a participant, or nil if unknown
func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %d: %w", id, err)
	}
	return p, nil
}

// GetByIDForUpdate retrieves a participant and locks the row for the
// remainder of the transaction
func (r *ParticipantRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1 FOR UPDATE`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock participant %d: %w", id, err)
	}
	return p, nil
}

// GetAll returns all participants ordered by name
func (r *ParticipantRepository) GetAll(ctx context.Context) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants ORDER BY name`

	return r.queryParticipants(ctx, query)
}

// GetActiveWithBroker returns active participants that have a broker assigned
func (r *ParticipantRepository) GetActiveWithBroker(ctx context.Context) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE is_active AND broker_id IS NOT NULL
		ORDER BY id
	`

	return r.queryParticipants(ctx, query)
}

func (r *ParticipantRepository) queryParticipants(ctx context.Context, query string, args ...any) ([]*models.Participant, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		var p models.Participant
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.BrokerID,
			&p.CurrentBalance,
			&p.StartingBalance,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// UpdateBalance sets a participant's cash balance
func (r *ParticipantRepository) UpdateBalance(ctx context.Context, id int64, newBalance decimal.Decimal) error {
	query := `
		UPDATE participants
		SET current_balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, newBalance, id)
	if err != nil {
		return fmt.Errorf("failed to update balance for participant %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found", id)
	}
	return nil
}

// AddToBalance credits a participant's cash balance atomically and
// returns the balance after the credit. The relative update plus the
// returned value let callers write audit rows without trusting a balance
// they read earlier in the transaction.
func (r *ParticipantRepository) AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE participants
		SET current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING current_balance
	`

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return decimal.Decimal{}, fmt.Errorf("participant %d not found", id)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to add to balance for participant %d: %w", id, err)
	}
	return newBalance, nil
}

// AssignBroker sets a participant's broker
func (r *ParticipantRepository) AssignBroker(ctx context.Context, id int64, brokerID int64) error {
	query := `
		UPDATE participants
		SET broker_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, brokerID, id)
	if err != nil {
		return fmt.Errorf("failed to assign broker for participant %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found", id)
	}
	return nil
}

// RestoreStartingBalances resets every balance to its starting value
func (r *ParticipantRepository) RestoreStartingBalances(ctx context.Context) (int64, error) {
	query := `
		UPDATE participants
		SET current_balance = starting_balance, updated_at = NOW()
	`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to restore starting balances: %w", err)
	}

	return result.RowsAffected(), nil
}
