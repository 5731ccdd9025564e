package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company represents a listed company in the competition roster
type Company struct {
	ID        int64     `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Sector    string    `db:"sector"`
	CreatedAt time.Time `db:"created_at"`
}

// StockPrice represents one company's fixed price for one simulation day
type StockPrice struct {
	ID        int64           `db:"id"`
	CompanyID int64           `db:"company_id"`
	DayNumber int             `db:"day_number"`
	Price     decimal.Decimal `db:"price"`
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
}

// FinancialReport represents a company disclosure published for one day
type FinancialReport struct {
	ID        int64     `db:"id"`
	CompanyID int64     `db:"company_id"`
	DayNumber int       `db:"day_number"`
	Content   string    `db:"content"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}
