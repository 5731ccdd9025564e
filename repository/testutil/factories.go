package testutil

import (
	"bourse/models"

	"github.com/shopspring/decimal"
)

// CreateTestCompany creates a company with default values
func CreateTestCompany(code, name string) *models.Company {
	return &models.Company{
		Code:   code,
		Name:   name,
		Sector: "Industrials",
	}
}

// CreateTestBroker creates a broker with the given percentage rates
func CreateTestBroker(name, feePct, interestPct string) *models.Broker {
	return &models.Broker{
		Name:          name,
		FeePercentage: decimal.RequireFromString(feePct),
		InterestRate:  decimal.RequireFromString(interestPct),
	}
}

// CreateTestPrice creates a pending price row for one company and day
func CreateTestPrice(companyID int64, day int, price string) *models.StockPrice {
	return &models.StockPrice{
		CompanyID: companyID,
		DayNumber: day,
		Price:     decimal.RequireFromString(price),
	}
}

// CreateTestReport creates a pending report row for one company and day
func CreateTestReport(companyID int64, day int) *models.FinancialReport {
	return &models.FinancialReport{
		CompanyID: companyID,
		DayNumber: day,
		Content:   "quarterly results",
	}
}
