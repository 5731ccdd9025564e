package models

import (
	"github.com/shopspring/decimal"
)

// PortfolioPosition is one holding valued at the latest active price
type PortfolioPosition struct {
	CompanyID       int64           `json:"company_id"`
	StockCode       string          `json:"stock_code"`
	CompanyName     string          `json:"company_name"`
	Quantity        int             `json:"quantity"`
	AverageBuyPrice decimal.Decimal `json:"average_buy_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	MarketValue     decimal.Decimal `json:"market_value"`
}

// PortfolioSummary is a participant's full valuation snapshot
type PortfolioSummary struct {
	ParticipantID   int64               `json:"participant_id"`
	ParticipantName string              `json:"participant_name"`
	CashBalance     decimal.Decimal     `json:"cash_balance"`
	StockValue      decimal.Decimal     `json:"stock_value"`
	NetWorth        decimal.Decimal     `json:"net_worth"`
	StartingBalance decimal.Decimal     `json:"starting_balance"`
	ReturnPct       decimal.Decimal     `json:"return_pct"`
	Positions       []PortfolioPosition `json:"positions"`
}

// LeaderboardEntry is one ranked row of the competition standing
type LeaderboardEntry struct {
	Rank            int             `json:"rank"`
	ParticipantID   int64           `json:"participant_id"`
	ParticipantName string          `json:"participant_name"`
	NetWorth        decimal.Decimal `json:"net_worth"`
	ReturnPct       decimal.Decimal `json:"return_pct"`
}
