package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// BrokerRepository implements the BrokerRepository interface
type BrokerRepository struct {
	q queryable
}

// NewBrokerRepository creates a new broker repository
func NewBrokerRepository(db *database.DB) *BrokerRepository {
	return &BrokerRepository{q: db.Pool}
}

// newBrokerRepositoryWithTx creates a new broker repository with a transaction
func newBrokerRepositoryWithTx(tx queryable) *BrokerRepository {
	return &BrokerRepository{q: tx}
}

// Create creates a broker
func (r *BrokerRepository) Create(ctx context.Context, broker *models.Broker) error {
	query := `
		INSERT INTO brokers (name, fee_percentage, interest_rate)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, broker.Name, broker.FeePercentage, broker.InterestRate).
		Scan(&broker.ID, &broker.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create broker %s: %w", broker.Name, err)
	}

	return nil
}

// GetByID retrieves a broker by id, or nil if unknown
func (r *BrokerRepository) GetByID(ctx context.Context, id int64) (*models.Broker, error) {
	query := `
		SELECT id, name, fee_percentage, interest_rate, created_at
		FROM brokers
		WHERE id = $1
	`

	var broker models.Broker
	err := r.q.QueryRow(ctx, query, id).Scan(
		&broker.ID,
		&broker.Name,
		&broker.FeePercentage,
		&broker.InterestRate,
		&broker.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broker %d: %w", id, err)
	}

	return &broker, nil
}

// GetAll returns all brokers ordered by name
func (r *BrokerRepository) GetAll(ctx context.Context) ([]*models.Broker, error) {
	query := `
		SELECT id, name, fee_percentage, interest_rate, created_at
		FROM brokers
		ORDER BY name
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get brokers: %w", err)
	}
	defer rows.Close()

	var brokers []*models.Broker
	for rows.Next() {
		var broker models.Broker
		err := rows.Scan(
			&broker.ID,
			&broker.Name,
			&broker.FeePercentage,
			&broker.InterestRate,
			&broker.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broker: %w", err)
		}
		brokers = append(brokers, &broker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brokers: %w", err)
	}

	return brokers, nil
}
