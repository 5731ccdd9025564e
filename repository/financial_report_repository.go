package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/models"
)

// FinancialReportRepository implements the FinancialReportRepository interface
type FinancialReportRepository struct {
	q queryable
}

// NewFinancialReportRepository creates a new financial report repository
func NewFinancialReportRepository(db *database.DB) *FinancialReportRepository {
	return &FinancialReportRepository{q: db.Pool}
}

// newFinancialReportRepositoryWithTx creates a new financial report repository with a transaction
func newFinancialReportRepositoryWithTx(tx queryable) *FinancialReportRepository {
	return &FinancialReportRepository{q: tx}
}

// Create inserts a pending report row for (company, day)
func (r *FinancialReportRepository) Create(ctx context.Context, report *models.FinancialReport) error {
	query := `
		INSERT INTO financial_reports (company_id, day_number, content, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		report.CompanyID,
		report.DayNumber,
		report.Content,
		report.IsActive,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report for company %d day %d: %w",
			report.CompanyID, report.DayNumber, err)
	}

	return nil
}

// ActivateForDay flips pending rows for a day to active, returning the count
func (r *FinancialReportRepository) ActivateForDay(ctx context.Context, day int) (int64, error) {
	query := `
		UPDATE financial_reports
		SET is_active = TRUE
		WHERE day_number = $1 AND NOT is_active
	`

	result, err := r.q.Exec(ctx, query, day)
	if err != nil {
		return 0, fmt.Errorf("failed to activate reports for day %d: %w", day, err)
	}

	return result.RowsAffected(), nil
}

// DeactivateAll clears the active flag on every report row
func (r *FinancialReportRepository) DeactivateAll(ctx context.Context) error {
	query := `UPDATE financial_reports SET is_active = FALSE WHERE is_active`

	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to deactivate reports: %w", err)
	}

	return nil
}
