package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Participant represents a competitor with a cash balance
type Participant struct {
	ID              int64           `db:"id"`
	Name            string          `db:"name"`
	BrokerID        *int64          `db:"broker_id"`
	CurrentBalance  decimal.Decimal `db:"current_balance"`
	StartingBalance decimal.Decimal `db:"starting_balance"`
	IsActive        bool            `db:"is_active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}
