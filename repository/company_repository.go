package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"

	"github.com/jackc/pgx/v5"
)

// CompanyRepository implements the CompanyRepository interface
type CompanyRepository struct {
	q queryable
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{q: db.Pool}
}

// newCompanyRepositoryWithTx creates a new company repository with a transaction
func newCompanyRepositoryWithTx(tx queryable) *CompanyRepository {
	return &CompanyRepository{q: tx}
}

// Create creates a company
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO companies (code, name, sector)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, company.Code, company.Name, company.Sector).
		Scan(&company.ID, &company.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company %s: %w", company.Code, err)
	}

	return nil
}

// GetByCode retrieves a company by its stock code, or nil if unknown
func (r *CompanyRepository) GetByCode(ctx context.Context, code string) (*models.Company, error) {
	query := `
		SELECT id, code, name, sector, created_at
		FROM companies
		WHERE code = $1
	`

	var company models.Company
	err := r.q.QueryRow(ctx, query, code).Scan(
		&company.ID,
		&company.Code,
		&company.Name,
		&company.Sector,
		&company.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by code %s: %w", code, err)
	}

	return &company, nil
}

// GetByID retrieves a company by id, or nil if unknown
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	query := `
		SELECT id, code, name, sector, created_at
		FROM companies
		WHERE id = $1
	`

	var company models.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&company.ID,
		&company.Code,
		&company.Name,
		&company.Sector,
		&company.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company %d: %w", id, err)
	}

	return &company, nil
}

// GetAll returns the full roster ordered by code
func (r *CompanyRepository) GetAll(ctx context.Context) ([]*models.Company, error) {
	query := `
		SELECT id, code, name, sector, created_at
		FROM companies
		ORDER BY code
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var company models.Company
		err := rows.Scan(
			&company.ID,
			&company.Code,
			&company.Name,
			&company.Sector,
			&company.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, nil
}
