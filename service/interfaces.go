package service

import (
	"context"

	"bourse/events"
	"bourse/models"

	"github.com/shopspring/decimal"
)

// DayControlRepository defines data access for the singleton simulation record
type DayControlRepository interface {
	// Get retrieves the day control record, or nil if it was never created
	Get(ctx context.Context) (*models.DayControl, error)

	// Create creates the singleton record in NOT_STARTED state
	Create(ctx context.Context, totalDays int) (*models.DayControl, error)

	// MarkStarted moves the record to day 1 and stamps the start timestamps
	MarkStarted(ctx context.Context) error

	// IncrementDay advances current_day by one, guarded by the day value the
	// caller just read. Returns the new day, or 0 if the guard matched no row
	// (a concurrent advance won, or the record went inactive).
	IncrementDay(ctx context.Context, fromDay int) (int, error)

	// SetActive flips the active flag
	SetActive(ctx context.Context, active bool) error

	// SetPaused flips the paused flag and stores the frozen countdown
	SetPaused(ctx context.Context, paused bool, remainingMs *int64) error

	// Reinitialize restores the record to NOT_STARTED
	Reinitialize(ctx context.Context) error
}

// SchedulerConfigRepository defines data access for the persisted timer setting
type SchedulerConfigRepository interface {
	// Get retrieves the scheduler config, or nil if never configured
	Get(ctx context.Context) (*models.SchedulerConfig, error)

	// Upsert creates or updates the singleton config row
	Upsert(ctx context.Context, enabled bool, intervalMinutes int) (*models.SchedulerConfig, error)
}

// CompanyRepository defines data access for the company roster
type CompanyRepository interface {
	// Create creates a company
	Create(ctx context.Context, company *models.Company) error

	// GetByCode retrieves a company by its stock code, or nil if unknown
	GetByCode(ctx context.Context, code string) (*models.Company, error)

	// GetByID retrieves a company by id, or nil if unknown
	GetByID(ctx context.Context, id int64) (*models.Company, error)

	// GetAll returns the full roster ordered by code
	GetAll(ctx context.Context) ([]*models.Company, error)
}

// StockPriceRepository defines data access for per-day price rows
type StockPriceRepository interface {
	// Create inserts a pending price row for (company, day)
	Create(ctx context.Context, price *models.StockPrice) error

	// GetByCompanyAndDay retrieves the price row for (company, day), or nil
	GetByCompanyAndDay(ctx context.Context, companyID int64, day int) (*models.StockPrice, error)

	// GetActiveForDay returns all active price rows for a day
	GetActiveForDay(ctx context.Context, day int) ([]*models.StockPrice, error)

	// ActivateForDay flips pending rows for a day to active, returning the count
	ActivateForDay(ctx context.Context, day int) (int64, error)

	// DeactivateAll clears the active flag on every price row
	DeactivateAll(ctx context.Context) error
}

// FinancialReportRepository defines data access for per-day report rows
type FinancialReportRepository interface {
	// Create inserts a pending report row for (company, day)
	Create(ctx context.Context, report *models.FinancialReport) error

	// ActivateForDay flips pending rows for a day to active, returning the count
	ActivateForDay(ctx context.Context, day int) (int64, error)

	// DeactivateAll clears the active flag on every report row
	DeactivateAll(ctx context.Context) error
}

// BrokerRepository defines data access for brokers
type BrokerRepository interface {
	// Create creates a broker
	Create(ctx context.Context, broker *models.Broker) error

	// GetByID retrieves a broker by id, or nil if unknown
	GetByID(ctx context.Context, id int64) (*models.Broker, error)

	// GetAll returns all brokers ordered by name
	GetAll(ctx context.Context) ([]*models.Broker, error)
}

// ParticipantRepository defines data access for competitors and their balances
type ParticipantRepository interface {
	// Create creates a participant with equal current and starting balance
	Create(ctx context.Context, name string, brokerID *int64, startingBalance decimal.Decimal) (*models.Participant, error)

	// GetByID retrieves a participant, or nil if unknown
	GetByID(ctx context.Context, id int64) (*models.Participant, error)

	// GetByIDForUpdate retrieves a participant and locks the row for the
	// remainder of the transaction, serializing concurrent money mutations
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Participant, error)

	// GetAll returns all participants ordered by name
	GetAll(ctx context.Context) ([]*models.Participant, error)

	// GetActiveWithBroker returns active participants that have a broker assigned
	GetActiveWithBroker(ctx context.Context) ([]*models.Participant, error)

	// UpdateBalance sets a participant's cash balance
	UpdateBalance(ctx context.Context, id int64, newBalance decimal.Decimal) error

	// AddToBalance credits a participant's cash balance atomically and
	// returns the balance after the credit
	AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)

	// AssignBroker sets a participant's broker
	AssignBroker(ctx context.Context, id int64, brokerID int64) error

	// RestoreStartingBalances resets every balance to its starting value,
	// returning the number of participants touched
	RestoreStartingBalances(ctx context.Context) (int64, error)
}

// HoldingRepository defines data access for open positions
type HoldingRepository interface {
	// GetByParticipant returns all holdings for a participant
	GetByParticipant(ctx context.Context, participantID int64) ([]*models.PortfolioHolding, error)

	// GetByParticipantAndCompany retrieves one holding, or nil if flat
	GetByParticipantAndCompany(ctx context.Context, participantID, companyID int64) (*models.PortfolioHolding, error)

	// Upsert inserts a holding or replaces its quantity and average cost
	Upsert(ctx context.Context, holding *models.PortfolioHolding) error

	// UpdateQuantity sets a holding's quantity
	UpdateQuantity(ctx context.Context, id int64, quantity int) error

	// Delete removes a holding row
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every holding (reset)
	DeleteAll(ctx context.Context) error
}

// TransactionRepository defines data access for the immutable trade ledger
type TransactionRepository interface {
	// CreateBatch appends all rows of one executed batch
	CreateBatch(ctx context.Context, transactions []*models.Transaction) error

	// HasBatchForDay reports whether the participant already executed a
	// batch for the given day
	HasBatchForDay(ctx context.Context, participantID int64, day int) (bool, error)

	// GetByParticipant returns recent transactions for a participant
	GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.Transaction, error)

	// DeleteAll removes every transaction (reset)
	DeleteAll(ctx context.Context) error
}

// InterestPaymentRepository defines data access for the interest ledger
type InterestPaymentRepository interface {
	// Create appends one interest payment row
	Create(ctx context.Context, payment *models.InterestPayment) error

	// GetByParticipant returns recent interest payments for a participant
	GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.InterestPayment, error)

	// DeleteAll removes every interest payment (reset)
	DeleteAll(ctx context.Context) error
}

// SimulationService owns the day-control state machine. All transitions
// run inside a single unit-of-work transaction and re-validate state
// against the row they just read, never against a cached value.
type SimulationService interface {
	// StartSimulation moves NOT_STARTED to RUNNING at day 1 and activates
	// day-1 prices and reports. Returns the new day number.
	StartSimulation(ctx context.Context) (int, error)

	// AdvanceDay increments the day, activates that day's prices and
	// reports, and credits interest, all in one transaction. Returns the
	// new day number.
	AdvanceDay(ctx context.Context) (int, error)

	// PauseSimulation marks the simulation paused, persisting the frozen
	// scheduler countdown alongside it
	PauseSimulation(ctx context.Context, remainingMs *int64) error

	// ResumeSimulation clears the paused flag and returns the countdown
	// that was frozen at pause time, if any
	ResumeSimulation(ctx context.Context) (*int64, error)

	// EndSimulation deactivates the simulation without changing the day
	EndSimulation(ctx context.Context) error

	// ResetSimulation destroys all trading state and restores starting
	// balances. The confirmation must equal the literal string "RESET".
	ResetSimulation(ctx context.Context, confirmation string) error

	// GetDayControl returns the current simulation record, or nil if the
	// simulation was never started
	GetDayControl(ctx context.Context) (*models.DayControl, error)
}

// TradingService executes all-or-nothing trade batches
type TradingService interface {
	// ExecuteTrades validates and atomically applies one participant's
	// batch of orders against the current day's active prices
	ExecuteTrades(ctx context.Context, participantID int64, orders []models.TradeOrder) (*models.TradeBatchResult, error)
}

// LeaderboardService values portfolios and ranks participants
type LeaderboardService interface {
	// GetPortfolio returns a participant's valuation snapshot
	GetPortfolio(ctx context.Context, participantID int64) (*models.PortfolioSummary, error)

	// GetLeaderboard returns participants ranked by net worth
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)

	// Invalidate drops the cached snapshot for one participant
	Invalidate(participantID int64)

	// InvalidateAll drops every cached snapshot
	InvalidateAll()
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	DayControlRepository() DayControlRepository
	SchedulerConfigRepository() SchedulerConfigRepository
	CompanyRepository() CompanyRepository
	StockPriceRepository() StockPriceRepository
	FinancialReportRepository() FinancialReportRepository
	BrokerRepository() BrokerRepository
	ParticipantRepository() ParticipantRepository
	HoldingRepository() HoldingRepository
	TransactionRepository() TransactionRepository
	InterestPaymentRepository() InterestPaymentRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
