package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// StockPriceRepository implements the StockPriceRepository interface
type StockPriceRepository struct {
	q queryable
}

// NewStockPriceRepository creates a new stock price repository
func NewStockPriceRepository(db *database.DB) *StockPriceRepository {
	return &StockPriceRepository{q: db.Pool}
}

// newStockPriceRepositoryWithTx creates a new stock price repository with a transaction
func newStockPriceRepositoryWithTx(tx queryable) *StockPriceRepository {
	return &StockPriceRepository{q: tx}
}

// Create inserts a pending price row for (company, day)
func (r *StockPriceRepository) Create(ctx context.Context, price *models.StockPrice) error {
	query := `
		INSERT INTO stock_prices (company_id, day_number, price, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		price.CompanyID,
		price.DayNumber,
		price.Price,
		price.IsActive,
	).Scan(&price.ID, &price.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create price for company %d day %d: %w",
			price.CompanyID, price.DayNumber, err)
	}

	return nil
}

// GetByCompanyAndDay retrieves the price row for (company, day), or nil
func (r *StockPriceRepository) GetByCompanyAndDay(ctx context.Context, companyID int64, day int) (*models.StockPrice, error) {
	query := `
		SELECT id, company_id, day_number, price, is_active, created_at
		FROM stock_prices
		WHERE company_id = $1 AND day_number = $2
	`

	var price models.StockPrice
	err := r.q.QueryRow(ctx, query, companyID, day).Scan(
		&price.ID,
		&price.CompanyID,
		&price.DayNumber,
		&price.Price,
		&price.IsActive,
		&price.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price for company %d day %d: %w", companyID, day, err)
	}

	return &price, nil
}

// GetActiveForDay returns all active price rows for a day
func (r *StockPriceRepository) GetActiveForDay(ctx context.Context, day int) ([]*models.StockPrice, error) {
	query := `
		SELECT id, company_id, day_number, price, is_active, created_at
		FROM stock_prices
		WHERE day_number = $1 AND is_active
		ORDER BY company_id
	`

	rows, err := r.q.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get active prices for day %d: %w", day, err)
	}
	defer rows.Close()

	var prices []*models.StockPrice
	for rows.Next() {
		var price models.StockPrice
		err := rows.Scan(
			&price.ID,
			&price.CompanyID,
			&price.DayNumber,
			&price.Price,
			&price.IsActive,
			&price.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, &price)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}

	return prices, nil
}

// ActivateForDay flips pending rows for a day to active, returning the count
func (r *StockPriceRepository) ActivateForDay(ctx context.Context, day int) (int64, error) {
	query := `
		UPDATE stock_prices
		SET is_active = TRUE
		WHERE day_number = $1 AND NOT is_active
	`

	result, err := r.q.Exec(ctx, query, day)
	if err != nil {
		return 0, fmt.Errorf("failed to activate prices for day %d: %w", day, err)
	}

	return result.RowsAffected(), nil
}

// DeactivateAll clears the active flag on every price row
func (r *StockPriceRepository) DeactivateAll(ctx context.Context) error {
	query := `UPDATE stock_prices SET is_active = FALSE WHERE is_active`

	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to deactivate prices: %w", err)
	}

	return nil
}
