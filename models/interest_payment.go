package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestPayment is an immutable ledger row for one credited interest
// event. PortfolioValue is the stock value the rate was applied to; cash
// is excluded.
type InterestPayment struct {
	ID             int64           `db:"id"`
	ParticipantID  int64           `db:"participant_id"`
	BrokerID       int64           `db:"broker_id"`
	DayNumber      int             `db:"day_number"`
	PortfolioValue decimal.Decimal `db:"portfolio_value"`
	InterestRate   decimal.Decimal `db:"interest_rate"`
	InterestAmount decimal.Decimal `db:"interest_amount"`
	BalanceBefore  decimal.Decimal `db:"balance_before"`
	BalanceAfter   decimal.Decimal `db:"balance_after"`
	CreatedAt      time.Time       `db:"created_at"`
}

// InterestRunSummary aggregates one day's interest crediting
type InterestRunSummary struct {
	DayNumber     int
	UsersCredited int
	TotalInterest decimal.Decimal
}
