package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bourse/models"
)

type leaderboardService struct {
	uowFactory UnitOfWorkFactory

	mu    sync.RWMutex
	cache map[int64]*models.PortfolioSummary
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(uowFactory UnitOfWorkFactory) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		cache:      make(map[int64]*models.PortfolioSummary),
	}
}

func (s *leaderboardService) GetPortfolio(ctx context.Context, participantID int64) (*models.PortfolioSummary, error) {
	s.mu.RLock()
	cached, ok := s.cache[participantID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	participant, err := uow.ParticipantRepository().GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}

	day := 0
	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl != nil {
		day = dayControl.CurrentDay
	}

	summary, err := s.buildSummary(ctx, uow, participant, day)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	s.cache[participantID] = summary
	s.mu.Unlock()

	return summary, nil
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	participants, err := uow.ParticipantRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	day := 0
	dayControl, err := uow.DayControlRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get day control: %w", err)
	}
	if dayControl != nil {
		day = dayControl.CurrentDay
	}

	entries := make([]*models.LeaderboardEntry, 0, len(participants))
	for _, participant := range participants {
		summary, err := s.buildSummary(ctx, uow, participant, day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &models.LeaderboardEntry{
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
			NetWorth:        summary.NetWorth,
			ReturnPct:       summary.ReturnPct,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Stable sort keeps equal net worths in roster order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].NetWorth.GreaterThan(entries[j].NetWorth)
	})
	for i, entry := range entries {
		entry.Rank = i + 1
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// buildSummary values one participant's holdings at the given day's
// active prices. Runs inside the caller's transaction.
func (s *leaderboardService) buildSummary(ctx context.Context, uow UnitOfWork, participant *models.Participant, day int) (*models.PortfolioSummary, error) {
	holdings, err := uow.HoldingRepository().GetByParticipant(ctx, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	summary := &models.PortfolioSummary{
		ParticipantID:   participant.ID,
		ParticipantName: participant.Name,
		CashBalance:     participant.CurrentBalance,
		StockValue:      decimalZero,
		StartingBalance: participant.StartingBalance,
		Positions:       make([]models.PortfolioPosition, 0, len(holdings)),
	}

	for _, holding := range holdings {
		company, err := uow.CompanyRepository().GetByID(ctx, holding.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		if company == nil {
			return nil, fmt.Errorf("company %d not found", holding.CompanyID)
		}

		currentPrice := decimalZero
		if day > 0 {
			price, err := uow.StockPriceRepository().GetByCompanyAndDay(ctx, holding.CompanyID, day)
			if err != nil {
				return nil, fmt.Errorf("failed to get price: %w", err)
			}
			if price != nil && price.IsActive {
				currentPrice = price.Price
			}
		}

		marketValue := currentPrice.Mul(decimalFromInt(holding.Quantity))
		summary.StockValue = summary.StockValue.Add(marketValue)
		summary.Positions = append(summary.Positions, models.PortfolioPosition{
			CompanyID:       holding.CompanyID,
			StockCode:       company.Code,
			CompanyName:     company.Name,
			Quantity:        holding.Quantity,
			AverageBuyPrice: holding.AverageBuyPrice,
			CurrentPrice:    currentPrice,
			MarketValue:     marketValue,
		})
	}

	summary.NetWorth = summary.CashBalance.Add(summary.StockValue)
	if summary.StartingBalance.IsPositive() {
		summary.ReturnPct = roundMoney(
			summary.NetWorth.Sub(summary.StartingBalance).Div(summary.StartingBalance).Mul(oneHundred))
	}
	return summary, nil
}

func (s *leaderboardService) Invalidate(participantID int64) {
	s.mu.Lock()
	delete(s.cache, participantID)
	s.mu.Unlock()
}

func (s *leaderboardService) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[int64]*models.PortfolioSummary)
	s.mu.Unlock()
}
