package service

import (
	"github.com/shopspring/decimal"
)

var (
	oneHundred  = decimal.NewFromInt(100)
	decimalZero = decimal.Zero
)

// decimalFromInt converts a share quantity for price arithmetic
func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// roundMoney applies the ledger's rounding rule: two fractional digits,
// half away from zero. Applied at each computed quantity (order amount,
// batch fee, interest amount, new average cost), never re-applied to
// stored values.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf computes pct% of base, rounded to money precision
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return roundMoney(base.Mul(pct).Div(oneHundred))
}
