package service

import (
	"context"
	"fmt"

	"bourse/events"
	"bourse/models"

	log "github.com/sirupsen/logrus"
)

// ResetConfirmation is the literal token ResetSimulation requires
const ResetConfirmation = "RESET"

type simulationService struct {
	uowFactory UnitOfWorkFactory
	totalDays  int
}

// NewSimulationService creates a new simulation service. totalDays is
// used only when the day control record is created lazily on first start.
func NewSimulationService(uowFactory UnitOfWorkFactory, totalDays int) SimulationService {
	return &simulationService{
		uowFactory: uowFactory,
		totalDays:  totalDays,
	}
}

func (s *simulationService) StartSimulation(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil {
		// First start ever, create the record lazily
		dayControl, err = uow.DayControlRepository().Create(ctx, s.totalDays)
		if err != nil {
			return 0, fmt.Errorf("failed to create day control: %w", err)
		}
	}

	// Only a pristine record can start. An ended simulation stays ended
	// until an explicit reset.
	if dayControl.State() != models.SimulationStateNotStarted {
		return 0, ErrAlreadyStarted
	}

	if err := uow.DayControlRepository().MarkStarted(ctx); err != nil {
		return 0, fmt.Errorf("failed to mark simulation started: %w", err)
	}

	// Day 1 prices and reports become visible with the start itself
	priceCount, err := uow.StockPriceRepository().ActivateForDay(ctx, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to activate day 1 prices: %w", err)
	}
	reportCount, err := uow.FinancialReportRepository().ActivateForDay(ctx, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to activate day 1 reports: %w", err)
	}

	uow.EventBus().Publish(events.SimulationStartedEvent{
		TotalDays: dayControl.TotalDays,
	})
	uow.EventBus().Publish(events.DayChangedEvent{
		Day:       1,
		TotalDays: dayControl.TotalDays,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"totalDays": dayControl.TotalDays,
		"prices":    priceCount,
		"reports":   reportCount,
	}).Info("Simulation started")

	return 1, nil
}

func (s *simulationService) AdvanceDay(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil {
		return 0, ErrNotConfigured
	}
	if !dayControl.IsActive || dayControl.CurrentDay == 0 {
		return 0, ErrNotActive
	}
	if dayControl.AtDayLimit() {
		return 0, ErrLimitReached
	}

	// The increment is guarded by the day we just read. If a concurrent
	// advance commits first, the guard matches nothing and we lose the
	// race cleanly instead of skipping a day.
	newDay, err := uow.DayControlRepository().IncrementDay(ctx, dayControl.CurrentDay)
	if err != nil {
		return 0, fmt.Errorf("failed to increment day: %w", err)
	}
	if newDay == 0 {
		return 0, ErrDayConflict
	}

	priceCount, err := uow.StockPriceRepository().ActivateForDay(ctx, newDay)
	if err != nil {
		return 0, fmt.Errorf("failed to activate day %d prices: %w", newDay, err)
	}
	reportCount, err := uow.FinancialReportRepository().ActivateForDay(ctx, newDay)
	if err != nil {
		return 0, fmt.Errorf("failed to activate day %d reports: %w", newDay, err)
	}

	// Interest is valued at the new day's prices, inside the same
	// transaction, so a failed run rolls the whole advance back
	summary, err := s.applyInterest(ctx, uow, newDay)
	if err != nil {
		return 0, fmt.Errorf("failed to apply interest for day %d: %w", newDay, err)
	}

	uow.EventBus().Publish(events.DayChangedEvent{
		Day:       newDay,
		TotalDays: dayControl.TotalDays,
	})
	if summary.UsersCredited > 0 {
		uow.EventBus().Publish(events.InterestAppliedEvent{
			Day:           summary.DayNumber,
			UsersCredited: summary.UsersCredited,
			TotalInterest: summary.TotalInterest,
		})
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"day":              newDay,
		"prices":           priceCount,
		"reports":          reportCount,
		"interestCredited": summary.UsersCredited,
		"interestTotal":    summary.TotalInterest.StringFixed(2),
	}).Info("Day advanced")

	return newDay, nil
}

// applyInterest credits each active brokered participant with interest on
// the stock value of their holdings, valued at the given day's active
// prices. Runs inside the caller's transaction.
func (s *simulationService) applyInterest(ctx context.Context, uow UnitOfWork, day int) (*models.InterestRunSummary, error) {
	summary := &models.InterestRunSummary{DayNumber: day}

	participants, err := uow.ParticipantRepository().GetActiveWithBroker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	if len(participants) == 0 {
		return summary, nil
	}

	prices, err := uow.StockPriceRepository().GetActiveForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get active prices: %w", err)
	}
	priceByCompany := make(map[int64]*models.StockPrice, len(prices))
	for _, p := range prices {
		priceByCompany[p.CompanyID] = p
	}

	brokers := make(map[int64]*models.Broker)

	for _, participant := range participants {
		broker, ok := brokers[*participant.BrokerID]
		if !ok {
			broker, err = uow.BrokerRepository().GetByID(ctx, *participant.BrokerID)
			if err != nil {
				return nil, fmt.Errorf("failed to get broker: %w", err)
			}
			if broker == nil {
				return nil, fmt.Errorf("broker %d not found", *participant.BrokerID)
			}
			brokers[broker.ID] = broker
		}
		if !broker.InterestRate.IsPositive() {
			continue
		}

		holdings, err := uow.HoldingRepository().GetByParticipant(ctx, participant.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get holdings: %w", err)
		}

		portfolioValue := decimalZero
		for _, holding := range holdings {
			price, ok := priceByCompany[holding.CompanyID]
			if !ok {
				// No active price for this company today, it contributes nothing
				continue
			}
			portfolioValue = portfolioValue.Add(price.Price.Mul(decimalFromInt(holding.Quantity)))
		}
		if !portfolioValue.IsPositive() {
			continue
		}

		amount := percentOf(portfolioValue, broker.InterestRate)
		if !amount.IsPositive() {
			continue
		}

		newBalance, err := uow.ParticipantRepository().AddToBalance(ctx, participant.ID, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to credit interest: %w", err)
		}
		// The audit row derives from the balance the credit actually landed
		// on, not from the participant row read at the top of the run
		payment := &models.InterestPayment{
			ParticipantID:  participant.ID,
			BrokerID:       broker.ID,
			DayNumber:      day,
			PortfolioValue: portfolioValue,
			InterestRate:   broker.InterestRate,
			InterestAmount: amount,
			BalanceBefore:  newBalance.Sub(amount),
			BalanceAfter:   newBalance,
		}
		if err := uow.InterestPaymentRepository().Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to record interest payment: %w", err)
		}

		summary.UsersCredited++
		summary.TotalInterest = summary.TotalInterest.Add(amount)
	}

	return summary, nil
}

func (s *simulationService) PauseSimulation(ctx context.Context, remainingMs *int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil {
		return ErrNotConfigured
	}
	if !dayControl.IsActive || dayControl.CurrentDay == 0 {
		return ErrNotActive
	}

	if err := uow.DayControlRepository().SetPaused(ctx, true, remainingMs); err != nil {
		return fmt.Errorf("failed to pause simulation: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("day", dayControl.CurrentDay).Info("Simulation paused")
	return nil
}

func (s *simulationService) ResumeSimulation(ctx context.Context) (*int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil {
		return nil, ErrNotConfigured
	}
	if !dayControl.IsActive || !dayControl.IsPaused {
		return nil, ErrNotActive
	}

	remaining := dayControl.PausedRemainingMs

	if err := uow.DayControlRepository().SetPaused(ctx, false, nil); err != nil {
		return nil, fmt.Errorf("failed to resume simulation: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("day", dayControl.CurrentDay).Info("Simulation resumed")
	return remaining, nil
}

func (s *simulationService) EndSimulation(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl == nil {
		return ErrNotConfigured
	}
	if !dayControl.IsActive {
		return ErrNotActive
	}

	if err := uow.DayControlRepository().SetActive(ctx, false); err != nil {
		return fmt.Errorf("failed to end simulation: %w", err)
	}

	uow.EventBus().Publish(events.SimulationEndedEvent{
		FinalDay: dayControl.CurrentDay,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("finalDay", dayControl.CurrentDay).Info("Simulation ended")
	return nil
}

func (s *simulationService) ResetSimulation(ctx context.Context, confirmation string) error {
	if confirmation != ResetConfirmation {
		return ErrBadConfirmation
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Destroy all trading state
	if err := uow.TransactionRepository().DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	if err := uow.InterestPaymentRepository().DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete interest payments: %w", err)
	}
	if err := uow.HoldingRepository().DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete holdings: %w", err)
	}

	restored, err := uow.ParticipantRepository().RestoreStartingBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore balances: %w", err)
	}

	// Hide everything again until the next start re-activates day 1
	if err := uow.StockPriceRepository().DeactivateAll(ctx); err != nil {
		return fmt.Errorf("failed to deactivate prices: %w", err)
	}
	if err := uow.FinancialReportRepository().DeactivateAll(ctx); err != nil {
		return fmt.Errorf("failed to deactivate reports: %w", err)
	}

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl != nil {
		if err := uow.DayControlRepository().Reinitialize(ctx); err != nil {
			return fmt.Errorf("failed to reinitialize day control: %w", err)
		}
	}

	uow.EventBus().Publish(events.SimulationResetEvent{
		ParticipantsRestored: int(restored),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("participantsRestored", restored).Warn("Simulation reset")
	return nil
}

func (s *simulationService) GetDayControl(ctx context.Context) (*models.DayControl, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return dayControl, nil
}
