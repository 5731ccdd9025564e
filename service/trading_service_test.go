package service

import (
	"context"
	"testing"

	"bourse/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type tradingMocks struct {
	uow         *MockUnitOfWork
	factory     *MockUnitOfWorkFactory
	dayControl  *MockDayControlRepository
	company     *MockCompanyRepository
	price       *MockStockPriceRepository
	broker      *MockBrokerRepository
	participant *MockParticipantRepository
	holding     *MockHoldingRepository
	transaction *MockTransactionRepository
}

func newTradingMocks() *tradingMocks {
	m := &tradingMocks{
		uow:         new(MockUnitOfWork),
		factory:     new(MockUnitOfWorkFactory),
		dayControl:  new(MockDayControlRepository),
		company:     new(MockCompanyRepository),
		price:       new(MockStockPriceRepository),
		broker:      new(MockBrokerRepository),
		participant: new(MockParticipantRepository),
		holding:     new(MockHoldingRepository),
		transaction: new(MockTransactionRepository),
	}
	m.uow.SetRepositories(m.dayControl, nil, m.company, m.price, nil, m.broker, m.participant, m.holding, m.transaction, nil)
	m.factory.On("Create").Return(m.uow)
	return m
}

func TestTradingService_ExecuteTrades_SingleBuy(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{
		ID:             7,
		Name:           "alice",
		BrokerID:       int64Ptr(2),
		CurrentBalance: decimal.NewFromInt(10000000),
		IsActive:       true,
	}
	broker := &models.Broker{ID: 2, FeePercentage: decimal.RequireFromString("0.5")}
	company := &models.Company{ID: 1, Code: "ABC", Name: "Alphabet Cement"}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(broker, nil)
	m.company.On("GetByCode", ctx, "ABC").Return(company, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(1), 2).Return(&models.StockPrice{
		CompanyID: 1, DayNumber: 2, Price: decimal.NewFromInt(5000), IsActive: true,
	}, nil)

	// Buying 100 at 5000 costs 500000, fee is 0.5% of turnover = 2500,
	// so the balance lands on 9497500
	expectedBalance := decimal.NewFromInt(9497500)
	m.participant.On("UpdateBalance", ctx, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expectedBalance)
	})).Return(nil)

	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(1)).Return(nil, nil)
	m.holding.On("Upsert", ctx, mock.MatchedBy(func(h *models.PortfolioHolding) bool {
		return h.ParticipantID == 7 &&
			h.CompanyID == 1 &&
			h.Quantity == 100 &&
			h.AverageBuyPrice.Equal(decimal.NewFromInt(5000))
	})).Return(nil)

	m.transaction.On("CreateBatch", ctx, mock.MatchedBy(func(rows []*models.Transaction) bool {
		if len(rows) != 1 {
			return false
		}
		row := rows[0]
		return row.ParticipantID == 7 &&
			row.Type == models.TransactionTypeBuy &&
			row.Quantity == 100 &&
			row.TotalAmount.Equal(decimal.NewFromInt(500000)) &&
			row.BrokerFee.Equal(decimal.NewFromInt(2500)) &&
			row.BalanceBefore.Equal(decimal.NewFromInt(10000000)) &&
			row.BalanceAfter.Equal(expectedBalance)
	})).Return(nil)

	result, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 100},
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, result.DayNumber)
	assert.Equal(t, 1, result.OrderCount)
	assert.True(t, result.TotalBuy.Equal(decimal.NewFromInt(500000)))
	assert.True(t, result.BrokerFee.Equal(decimal.NewFromInt(2500)))
	assert.True(t, result.BalanceAfter.Equal(expectedBalance))

	m.participant.AssertExpectations(t)
	m.holding.AssertExpectations(t)
	m.transaction.AssertExpectations(t)
	m.uow.AssertExpectations(t)
}

func TestTradingService_ExecuteTrades_MixedBatch(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{
		ID:             7,
		BrokerID:       int64Ptr(2),
		CurrentBalance: decimal.NewFromInt(1000000),
		IsActive:       true,
	}
	broker := &models.Broker{ID: 2, FeePercentage: decimal.RequireFromString("0.5")}
	xyz := &models.Company{ID: 3, Code: "XYZ"}
	qrs := &models.Company{ID: 4, Code: "QRS"}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 5, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 5).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(broker, nil)

	m.company.On("GetByCode", ctx, "XYZ").Return(xyz, nil)
	m.company.On("GetByCode", ctx, "QRS").Return(qrs, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(3), 5).Return(&models.StockPrice{
		CompanyID: 3, DayNumber: 5, Price: decimal.NewFromInt(6000), IsActive: true,
	}, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(4), 5).Return(&models.StockPrice{
		CompanyID: 4, DayNumber: 5, Price: decimal.NewFromInt(1000), IsActive: true,
	}, nil)

	// Buy 50 XYZ at 6000 = 300000 out, sell 20 QRS at 1000 = 20000 in,
	// fee is 0.5% of 320000 turnover = 1600
	expectedBalance := decimal.NewFromInt(718400)
	m.participant.On("UpdateBalance", ctx, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expectedBalance)
	})).Return(nil)

	// Existing XYZ position of 50 at 4000 average, the buy at 6000 moves
	// the weighted average to 5000
	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(3)).Return(&models.PortfolioHolding{
		ID: 21, ParticipantID: 7, CompanyID: 3, Quantity: 50, AverageBuyPrice: decimal.NewFromInt(4000),
	}, nil)
	m.holding.On("Upsert", ctx, mock.MatchedBy(func(h *models.PortfolioHolding) bool {
		return h.CompanyID == 3 &&
			h.Quantity == 100 &&
			h.AverageBuyPrice.Equal(decimal.NewFromInt(5000))
	})).Return(nil)

	// Full sell of the QRS position deletes the holding row
	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(4)).Return(&models.PortfolioHolding{
		ID: 22, ParticipantID: 7, CompanyID: 4, Quantity: 20, AverageBuyPrice: decimal.NewFromInt(900),
	}, nil)
	m.holding.On("Delete", ctx, int64(22)).Return(nil)

	m.transaction.On("CreateBatch", ctx, mock.MatchedBy(func(rows []*models.Transaction) bool {
		if len(rows) != 2 {
			return false
		}
		// Every row of the batch carries the same ids and batch-level money
		sameBatch := rows[0].BatchID == rows[1].BatchID
		return sameBatch &&
			rows[0].BrokerFee.Equal(decimal.NewFromInt(1600)) &&
			rows[1].BrokerFee.Equal(decimal.NewFromInt(1600)) &&
			rows[0].BalanceAfter.Equal(expectedBalance) &&
			rows[1].BalanceAfter.Equal(expectedBalance)
	})).Return(nil)

	result, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "XYZ", Type: models.TransactionTypeBuy, Quantity: 50},
		{StockCode: "QRS", Type: models.TransactionTypeSell, Quantity: 20},
	})

	assert.NoError(t, err)
	assert.True(t, result.TotalBuy.Equal(decimal.NewFromInt(300000)))
	assert.True(t, result.TotalSell.Equal(decimal.NewFromInt(20000)))
	assert.True(t, result.BrokerFee.Equal(decimal.NewFromInt(1600)))

	m.holding.AssertExpectations(t)
	m.transaction.AssertExpectations(t)
}

func TestTradingService_ExecuteTrades_ZeroFeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	startingBalance := decimal.NewFromInt(1000000)
	participant := &models.Participant{
		ID:             7,
		BrokerID:       int64Ptr(2),
		CurrentBalance: startingBalance,
		IsActive:       true,
	}
	// A free broker makes the batch a pure wash
	broker := &models.Broker{ID: 2, FeePercentage: decimal.Zero}
	company := &models.Company{ID: 1, Code: "ABC"}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(broker, nil)
	m.company.On("GetByCode", ctx, "ABC").Return(company, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(1), 2).Return(&models.StockPrice{
		CompanyID: 1, DayNumber: 2, Price: decimal.NewFromInt(5000), IsActive: true,
	}, nil)

	// Buy and sell cancel out and the fee is zero, so the balance written
	// back is exactly the starting balance
	m.participant.On("UpdateBalance", ctx, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(startingBalance)
	})).Return(nil)

	// The buy sees a flat position, the sell sees the position the buy made
	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(1)).Return(nil, nil).Once()
	m.holding.On("Upsert", ctx, mock.MatchedBy(func(h *models.PortfolioHolding) bool {
		return h.Quantity == 100 && h.AverageBuyPrice.Equal(decimal.NewFromInt(5000))
	})).Return(nil)
	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(1)).Return(&models.PortfolioHolding{
		ID: 31, ParticipantID: 7, CompanyID: 1, Quantity: 100, AverageBuyPrice: decimal.NewFromInt(5000),
	}, nil).Once()
	m.holding.On("Delete", ctx, int64(31)).Return(nil)

	m.transaction.On("CreateBatch", ctx, mock.MatchedBy(func(rows []*models.Transaction) bool {
		if len(rows) != 2 {
			return false
		}
		return rows[0].BrokerFee.Equal(decimal.Zero) &&
			rows[0].BalanceBefore.Equal(startingBalance) &&
			rows[1].BalanceAfter.Equal(startingBalance)
	})).Return(nil)

	result, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 100},
		{StockCode: "ABC", Type: models.TransactionTypeSell, Quantity: 100},
	})

	assert.NoError(t, err)
	assert.True(t, result.BrokerFee.Equal(decimal.Zero))
	assert.True(t, result.BalanceBefore.Equal(startingBalance))
	assert.True(t, result.BalanceAfter.Equal(startingBalance))

	m.participant.AssertExpectations(t)
	m.holding.AssertExpectations(t)
	m.uow.AssertExpectations(t)
}

func TestTradingService_ExecuteTrades_InactiveSimulation(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: int64Ptr(2), CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 4, TotalDays: 10, IsActive: false}, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrNotActive)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestTradingService_ExecuteTrades_PriceUnavailable(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: int64Ptr(2), CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(&models.Broker{ID: 2}, nil)
	m.company.On("GetByCode", ctx, "ABC").Return(&models.Company{ID: 1, Code: "ABC"}, nil)
	// A price row that exists but was never activated is not tradable
	m.price.On("GetByCompanyAndDay", ctx, int64(1), 2).Return(&models.StockPrice{
		CompanyID: 1, DayNumber: 2, Price: decimal.NewFromInt(5000), IsActive: false,
	}, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 1},
	})

	var priceErr *PriceUnavailableError
	assert.ErrorAs(t, err, &priceErr)
	assert.Equal(t, "ABC", priceErr.Code)
	assert.Equal(t, 2, priceErr.Day)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestTradingService_ExecuteTrades_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{
		ID:             7,
		BrokerID:       int64Ptr(2),
		CurrentBalance: decimal.NewFromInt(100000),
		IsActive:       true,
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(&models.Broker{ID: 2, FeePercentage: decimal.RequireFromString("0.5")}, nil)
	m.company.On("GetByCode", ctx, "ABC").Return(&models.Company{ID: 1, Code: "ABC"}, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(1), 2).Return(&models.StockPrice{
		CompanyID: 1, DayNumber: 2, Price: decimal.NewFromInt(5000), IsActive: true,
	}, nil)

	// 100 shares cost 500000 plus 2500 fee against a 100000 balance
	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 100},
	})

	var balanceErr *InsufficientBalanceError
	assert.ErrorAs(t, err, &balanceErr)
	assert.True(t, balanceErr.Shortfall.Equal(decimal.NewFromInt(402500)))
	m.participant.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestTradingService_ExecuteTrades_InsufficientShares(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{
		ID:             7,
		BrokerID:       int64Ptr(2),
		CurrentBalance: decimal.NewFromInt(100000),
		IsActive:       true,
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(&models.Broker{ID: 2, FeePercentage: decimal.RequireFromString("0.5")}, nil)
	m.company.On("GetByCode", ctx, "ABC").Return(&models.Company{ID: 1, Code: "ABC"}, nil)
	m.price.On("GetByCompanyAndDay", ctx, int64(1), 2).Return(&models.StockPrice{
		CompanyID: 1, DayNumber: 2, Price: decimal.NewFromInt(100), IsActive: true,
	}, nil)
	m.participant.On("UpdateBalance", ctx, int64(7), mock.Anything).Return(nil)
	m.holding.On("GetByParticipantAndCompany", ctx, int64(7), int64(1)).Return(&models.PortfolioHolding{
		ID: 21, ParticipantID: 7, CompanyID: 1, Quantity: 5,
	}, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeSell, Quantity: 10},
	})

	var sharesErr *InsufficientSharesError
	assert.ErrorAs(t, err, &sharesErr)
	assert.Equal(t, 5, sharesErr.Have)
	assert.Equal(t, 10, sharesErr.Need)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestTradingService_ExecuteTrades_DailyLimit(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: int64Ptr(2), CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(true, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestTradingService_ExecuteTrades_FinalDayClosed(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: int64Ptr(2), CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 10, TotalDays: 10, IsActive: true}, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeSell, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrTradingClosed)
}

func TestTradingService_ExecuteTrades_NoBroker(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: nil, CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrNoBroker)
}

func TestTradingService_ExecuteTrades_UnknownStock(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	participant := &models.Participant{ID: 7, BrokerID: int64Ptr(2), CurrentBalance: decimal.NewFromInt(100000), IsActive: true}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.participant.On("GetByIDForUpdate", ctx, int64(7)).Return(participant, nil)
	m.dayControl.On("Get", ctx).Return(&models.DayControl{ID: 1, CurrentDay: 2, TotalDays: 10, IsActive: true}, nil)
	m.transaction.On("HasBatchForDay", ctx, int64(7), 2).Return(false, nil)
	m.broker.On("GetByID", ctx, int64(2)).Return(&models.Broker{ID: 2}, nil)
	m.company.On("GetByCode", ctx, "NOPE").Return(nil, nil)

	_, err := service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "NOPE", Type: models.TransactionTypeBuy, Quantity: 1},
	})

	var stockErr *InvalidStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "NOPE", stockErr.Code)
}

func TestTradingService_ExecuteTrades_ValidatesOrders(t *testing.T) {
	ctx := context.Background()
	m := newTradingMocks()
	service := NewTradingService(m.factory)

	_, err := service.ExecuteTrades(ctx, 7, nil)
	assert.Error(t, err)

	_, err = service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: models.TransactionTypeBuy, Quantity: 0},
	})
	assert.Error(t, err)

	_, err = service.ExecuteTrades(ctx, 7, []models.TradeOrder{
		{StockCode: "ABC", Type: "SHORT", Quantity: 1},
	})
	assert.Error(t, err)

	m.factory.AssertNotCalled(t, "Create")
}
