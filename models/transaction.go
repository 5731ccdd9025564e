package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of an executed order
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// TransactionStatus represents the settlement state of a transaction row
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an immutable ledger row for one executed order.
// BalanceBefore/BalanceAfter are batch-level: every row of a batch carries
// the pre- and post-batch balances, and BrokerFee is the combined fee for
// the whole batch.
type Transaction struct {
	ID            int64             `db:"id"`
	BatchID       uuid.UUID         `db:"batch_id"`
	ParticipantID int64             `db:"participant_id"`
	CompanyID     int64             `db:"company_id"`
	BrokerID      int64             `db:"broker_id"`
	DayNumber     int               `db:"day_number"`
	Type          TransactionType   `db:"type"`
	Quantity      int               `db:"quantity"`
	PricePerShare decimal.Decimal   `db:"price_per_share"`
	TotalAmount   decimal.Decimal   `db:"total_amount"`
	BrokerFee     decimal.Decimal   `db:"broker_fee"`
	BalanceBefore decimal.Decimal   `db:"balance_before"`
	BalanceAfter  decimal.Decimal   `db:"balance_after"`
	Status        TransactionStatus `db:"status"`
	CreatedAt     time.Time         `db:"created_at"`
}

// TradeOrder is one buy/sell instruction within a submitted batch
type TradeOrder struct {
	StockCode string          `json:"stock_code"`
	Type      TransactionType `json:"type"`
	Quantity  int             `json:"quantity"`
}

// TradeBatchResult summarizes an executed batch (returned to the caller)
type TradeBatchResult struct {
	BatchID       uuid.UUID       `json:"batch_id"`
	DayNumber     int             `json:"day_number"`
	OrderCount    int             `json:"order_count"`
	TotalBuy      decimal.Decimal `json:"total_buy"`
	TotalSell     decimal.Decimal `json:"total_sell"`
	BrokerFee     decimal.Decimal `json:"broker_fee"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}
