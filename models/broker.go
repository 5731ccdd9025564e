package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Broker represents a brokerage charging a trade fee and paying interest
// on stock holdings. Both rates are percentages.
type Broker struct {
	ID            int64           `db:"id"`
	Name          string          `db:"name"`
	FeePercentage decimal.Decimal `db:"fee_percentage"`
	InterestRate  decimal.Decimal `db:"interest_rate"`
	CreatedAt     time.Time       `db:"created_at"`
}
