package service

import (
	"context"
	"fmt"

	"bourse/events"
	"bourse/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type tradingService struct {
	uowFactory UnitOfWorkFactory
}

// NewTradingService creates a new trading service
func NewTradingService(uowFactory UnitOfWorkFactory) TradingService {
	return &tradingService{
		uowFactory: uowFactory,
	}
}

// resolvedOrder pairs an order with its company, price row and rounded amount
type resolvedOrder struct {
	order   models.TradeOrder
	company *models.Company
	price   *models.StockPrice
	amount  decimal.Decimal
}

func (s *tradingService) ExecuteTrades(ctx context.Context, participantID int64, orders []models.TradeOrder) (*models.TradeBatchResult, error) {
	// Validate inputs
	if len(orders) == 0 {
		return nil, fmt.Errorf("trade batch must contain at least one order")
	}
	for i, order := range orders {
		if order.Quantity <= 0 {
			return nil, fmt.Errorf("order %d: quantity must be positive", i+1)
		}
		if order.Type != models.TransactionTypeBuy && order.Type != models.TransactionTypeSell {
			return nil, fmt.Errorf("order %d: unknown order type %q", i+1, order.Type)
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Lock the participant row first. Everything that moves this
	// participant's money serializes on this lock.
	participant, err := uow.ParticipantRepository().GetByIDForUpdate(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}
	if participant.BrokerID == nil {
		return nil, ErrNoBroker
	}

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil || !dayControl.IsActive || dayControl.CurrentDay == 0 {
		return nil, ErrNotActive
	}
	if dayControl.AtDayLimit() {
		return nil, ErrTradingClosed
	}
	day := dayControl.CurrentDay

	// One batch per participant per day. The check runs under the row
	// lock, so two concurrent batches cannot both pass it.
	traded, err := uow.TransactionRepository().HasBatchForDay(ctx, participantID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily batch: %w", err)
	}
	if traded {
		return nil, ErrDailyLimitReached
	}

	broker, err := uow.BrokerRepository().GetByID(ctx, *participant.BrokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get broker: %w", err)
	}
	if broker == nil {
		return nil, fmt.Errorf("broker %d not found", *participant.BrokerID)
	}

	// Resolve every order against the current day's active prices before
	// touching anything, so a bad order rejects the whole batch
	resolved := make([]resolvedOrder, 0, len(orders))
	totalBuy := decimalZero
	totalSell := decimalZero
	for _, order := range orders {
		company, err := uow.CompanyRepository().GetByCode(ctx, order.StockCode)
		if err != nil {
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		if company == nil {
			return nil, &InvalidStockError{Code: order.StockCode}
		}

		price, err := uow.StockPriceRepository().GetByCompanyAndDay(ctx, company.ID, day)
		if err != nil {
			return nil, fmt.Errorf("failed to get price: %w", err)
		}
		if price == nil || !price.IsActive {
			return nil, &PriceUnavailableError{Code: order.StockCode, Day: day}
		}

		amount := roundMoney(price.Price.Mul(decimalFromInt(order.Quantity)))
		if order.Type == models.TransactionTypeBuy {
			totalBuy = totalBuy.Add(amount)
		} else {
			totalSell = totalSell.Add(amount)
		}
		resolved = append(resolved, resolvedOrder{
			order:   order,
			company: company,
			price:   price,
			amount:  amount,
		})
	}

	// The fee applies once to the combined turnover of the batch
	fee := percentOf(totalBuy.Add(totalSell), broker.FeePercentage)
	balanceBefore := participant.CurrentBalance
	balanceAfter := balanceBefore.Sub(totalBuy).Add(totalSell).Sub(fee)
	if balanceAfter.IsNegative() {
		return nil, &InsufficientBalanceError{Shortfall: balanceAfter.Neg()}
	}

	if err := uow.ParticipantRepository().UpdateBalance(ctx, participantID, balanceAfter); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	// Apply orders in submitted sequence. A sell that outruns the holdings
	// mid-batch fails here and rolls the whole batch back.
	for _, r := range resolved {
		if err := s.applyOrder(ctx, uow, participantID, r); err != nil {
			return nil, err
		}
	}

	batchID := uuid.New()
	rows := make([]*models.Transaction, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, &models.Transaction{
			BatchID:       batchID,
			ParticipantID: participantID,
			CompanyID:     r.company.ID,
			BrokerID:      broker.ID,
			DayNumber:     day,
			Type:          r.order.Type,
			Quantity:      r.order.Quantity,
			PricePerShare: r.price.Price,
			TotalAmount:   r.amount,
			BrokerFee:     fee,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			Status:        models.TransactionStatusCompleted,
		})
	}
	if err := uow.TransactionRepository().CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to record transactions: %w", err)
	}

	uow.EventBus().Publish(events.TradesExecutedEvent{
		ParticipantID: participantID,
		BatchID:       batchID,
		Day:           day,
		OrderCount:    len(resolved),
		NewBalance:    balanceAfter,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"participantID": participantID,
		"batchID":       batchID,
		"day":           day,
		"orders":        len(resolved),
		"fee":           fee.StringFixed(2),
		"balance":       balanceAfter.StringFixed(2),
	}).Info("Trade batch executed")

	return &models.TradeBatchResult{
		BatchID:       batchID,
		DayNumber:     day,
		OrderCount:    len(resolved),
		TotalBuy:      totalBuy,
		TotalSell:     totalSell,
		BrokerFee:     fee,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
	}, nil
}

// applyOrder mutates the participant's holding for one resolved order
func (s *tradingService) applyOrder(ctx context.Context, uow UnitOfWork, participantID int64, r resolvedOrder) error {
	holding, err := uow.HoldingRepository().GetByParticipantAndCompany(ctx, participantID, r.company.ID)
	if err != nil {
		return fmt.Errorf("failed to get holding: %w", err)
	}

	if r.order.Type == models.TransactionTypeBuy {
		newQuantity := r.order.Quantity
		newAverage := r.price.Price
		if holding != nil {
			// Weighted average over the existing position and this buy
			oldCost := holding.AverageBuyPrice.Mul(decimalFromInt(holding.Quantity))
			newQuantity = holding.Quantity + r.order.Quantity
			newAverage = roundMoney(oldCost.Add(r.amount).Div(decimalFromInt(newQuantity)))
		}
		if err := uow.HoldingRepository().Upsert(ctx, &models.PortfolioHolding{
			ParticipantID:   participantID,
			CompanyID:       r.company.ID,
			Quantity:        newQuantity,
			AverageBuyPrice: newAverage,
		}); err != nil {
			return fmt.Errorf("failed to upsert holding: %w", err)
		}
		return nil
	}

	// Sell
	have := 0
	if holding != nil {
		have = holding.Quantity
	}
	if have < r.order.Quantity {
		return &InsufficientSharesError{Code: r.company.Code, Have: have, Need: r.order.Quantity}
	}
	remaining := have - r.order.Quantity
	if remaining == 0 {
		// Average buy price carries no meaning for a flat position
		if err := uow.HoldingRepository().Delete(ctx, holding.ID); err != nil {
			return fmt.Errorf("failed to delete holding: %w", err)
		}
		return nil
	}
	if err := uow.HoldingRepository().UpdateQuantity(ctx, holding.ID, remaining); err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}
