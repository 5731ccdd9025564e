package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioHolding represents a participant's open position in one company.
// Created on first buy, deleted when the quantity reaches zero.
type PortfolioHolding struct {
	ID              int64           `db:"id"`
	ParticipantID   int64           `db:"participant_id"`
	CompanyID       int64           `db:"company_id"`
	Quantity        int             `db:"quantity"`
	AverageBuyPrice decimal.Decimal `db:"average_buy_price"`
	UpdatedAt       time.Time       `db:"updated_at"`
}
