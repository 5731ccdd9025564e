package service

import (
	"context"

	"bourse/events"
	"bourse/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDayControlRepository is a mock implementation of DayControlRepository
type MockDayControlRepository struct {
	mock.Mock
}

func (m *MockDayControlRepository) Get(ctx context.Context) (*models.DayControl, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayControl), args.Error(1)
}

func (m *MockDayControlRepository) Create(ctx context.Context, totalDays int) (*models.DayControl, error) {
	args := m.Called(ctx, totalDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayControl), args.Error(1)
}

func (m *MockDayControlRepository) MarkStarted(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDayControlRepository) IncrementDay(ctx context.Context, fromDay int) (int, error) {
	args := m.Called(ctx, fromDay)
	return args.Int(0), args.Error(1)
}

func (m *MockDayControlRepository) SetActive(ctx context.Context, active bool) error {
	args := m.Called(ctx, active)
	return args.Error(0)
}

func (m *MockDayControlRepository) SetPaused(ctx context.Context, paused bool, remainingMs *int64) error {
	args := m.Called(ctx, paused, remainingMs)
	return args.Error(0)
}

func (m *MockDayControlRepository) Reinitialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSchedulerConfigRepository is a mock implementation of SchedulerConfigRepository
type MockSchedulerConfigRepository struct {
	mock.Mock
}

func (m *MockSchedulerConfigRepository) Get(ctx context.Context) (*models.SchedulerConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SchedulerConfig), args.Error(1)
}

func (m *MockSchedulerConfigRepository) Upsert(ctx context.Context, enabled bool, intervalMinutes int) (*models.SchedulerConfig, error) {
	args := m.Called(ctx, enabled, intervalMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SchedulerConfig), args.Error(1)
}

// MockCompanyRepository is a mock implementation of CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) GetByCode(ctx context.Context, code string) (*models.Company, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetAll(ctx context.Context) ([]*models.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Company), args.Error(1)
}

// MockStockPriceRepository is a mock implementation of StockPriceRepository
type MockStockPriceRepository struct {
	mock.Mock
}

func (m *MockStockPriceRepository) Create(ctx context.Context, price *models.StockPrice) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockStockPriceRepository) GetByCompanyAndDay(ctx context.Context, companyID int64, day int) (*models.StockPrice, error) {
	args := m.Called(ctx, companyID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockPrice), args.Error(1)
}

func (m *MockStockPriceRepository) GetActiveForDay(ctx context.Context, day int) ([]*models.StockPrice, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StockPrice), args.Error(1)
}

func (m *MockStockPriceRepository) ActivateForDay(ctx context.Context, day int) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockPriceRepository) DeactivateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockFinancialReportRepository is a mock implementation of FinancialReportRepository
type MockFinancialReportRepository struct {
	mock.Mock
}

func (m *MockFinancialReportRepository) Create(ctx context.Context, report *models.FinancialReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockFinancialReportRepository) ActivateForDay(ctx context.Context, day int) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFinancialReportRepository) DeactivateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBrokerRepository is a mock implementation of BrokerRepository
type MockBrokerRepository struct {
	mock.Mock
}

func (m *MockBrokerRepository) Create(ctx context.Context, broker *models.Broker) error {
	args := m.Called(ctx, broker)
	return args.Error(0)
}

func (m *MockBrokerRepository) GetByID(ctx context.Context, id int64) (*models.Broker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Broker), args.Error(1)
}

func (m *MockBrokerRepository) GetAll(ctx context.Context) ([]*models.Broker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Broker), args.Error(1)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(ctx context.Context, name string, brokerID *int64, startingBalance decimal.Decimal) (*models.Participant, error) {
	args := m.Called(ctx, name, brokerID, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetAll(ctx context.Context) ([]*models.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetActiveWithBroker(ctx context.Context) ([]*models.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) UpdateBalance(ctx context.Context, id int64, newBalance decimal.Decimal) error {
	args := m.Called(ctx, id, newBalance)
	return args.Error(0)
}

func (m *MockParticipantRepository) AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockParticipantRepository) AssignBroker(ctx context.Context, id int64, brokerID int64) error {
	args := m.Called(ctx, id, brokerID)
	return args.Error(0)
}

func (m *MockParticipantRepository) RestoreStartingBalances(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockHoldingRepository is a mock implementation of HoldingRepository
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) GetByParticipant(ctx context.Context, participantID int64) ([]*models.PortfolioHolding, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PortfolioHolding), args.Error(1)
}

func (m *MockHoldingRepository) GetByParticipantAndCompany(ctx context.Context, participantID, companyID int64) (*models.PortfolioHolding, error) {
	args := m.Called(ctx, participantID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioHolding), args.Error(1)
}

func (m *MockHoldingRepository) Upsert(ctx context.Context, holding *models.PortfolioHolding) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockHoldingRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockHoldingRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHoldingRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction) error {
	args := m.Called(ctx, transactions)
	return args.Error(0)
}

func (m *MockTransactionRepository) HasBatchForDay(ctx context.Context, participantID int64, day int) (bool, error) {
	args := m.Called(ctx, participantID, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, participantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockInterestPaymentRepository is a mock implementation of InterestPaymentRepository
type MockInterestPaymentRepository struct {
	mock.Mock
}

func (m *MockInterestPaymentRepository) Create(ctx context.Context, payment *models.InterestPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockInterestPaymentRepository) GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.InterestPayment, error) {
	args := m.Called(ctx, participantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InterestPayment), args.Error(1)
}

func (m *MockInterestPaymentRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopEventPublisher drops events, for tests that do not assert on them
type noopEventPublisher struct{}

func (noopEventPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// getters return whatever SetRepositories stored rather than going
// through the expectation machinery.
type MockUnitOfWork struct {
	mock.Mock

	dayControlRepo      DayControlRepository
	schedulerConfigRepo SchedulerConfigRepository
	companyRepo         CompanyRepository
	stockPriceRepo      StockPriceRepository
	financialReportRepo FinancialReportRepository
	brokerRepo          BrokerRepository
	participantRepo     ParticipantRepository
	holdingRepo         HoldingRepository
	transactionRepo     TransactionRepository
	interestPaymentRepo InterestPaymentRepository
	eventBus            EventPublisher
}

// SetRepositories wires the repository mocks a test cares about. Pass nil
// for repositories the code under test never touches.
func (m *MockUnitOfWork) SetRepositories(
	dayControl DayControlRepository,
	schedulerConfig SchedulerConfigRepository,
	company CompanyRepository,
	stockPrice StockPriceRepository,
	financialReport FinancialReportRepository,
	broker BrokerRepository,
	participant ParticipantRepository,
	holding HoldingRepository,
	transaction TransactionRepository,
	interestPayment InterestPaymentRepository,
) {
	m.dayControlRepo = dayControl
	m.schedulerConfigRepo = schedulerConfig
	m.companyRepo = company
	m.stockPriceRepo = stockPrice
	m.financialReportRepo = financialReport
	m.brokerRepo = broker
	m.participantRepo = participant
	m.holdingRepo = holding
	m.transactionRepo = transaction
	m.interestPaymentRepo = interestPayment
}

// SetEventBus overrides the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) DayControlRepository() DayControlRepository {
	return m.dayControlRepo
}

func (m *MockUnitOfWork) SchedulerConfigRepository() SchedulerConfigRepository {
	return m.schedulerConfigRepo
}

func (m *MockUnitOfWork) CompanyRepository() CompanyRepository {
	return m.companyRepo
}

func (m *MockUnitOfWork) StockPriceRepository() StockPriceRepository {
	return m.stockPriceRepo
}

func (m *MockUnitOfWork) FinancialReportRepository() FinancialReportRepository {
	return m.financialReportRepo
}

func (m *MockUnitOfWork) BrokerRepository() BrokerRepository {
	return m.brokerRepo
}

func (m *MockUnitOfWork) ParticipantRepository() ParticipantRepository {
	return m.participantRepo
}

func (m *MockUnitOfWork) HoldingRepository() HoldingRepository {
	return m.holdingRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) InterestPaymentRepository() InterestPaymentRepository {
	return m.interestPaymentRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopEventPublisher{}
	}
	return m.eventBus
}

// MockSimulationService is a mock implementation of SimulationService
type MockSimulationService struct {
	mock.Mock
}

func (m *MockSimulationService) StartSimulation(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSimulationService) AdvanceDay(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSimulationService) PauseSimulation(ctx context.Context, remainingMs *int64) error {
	args := m.Called(ctx, remainingMs)
	return args.Error(0)
}

func (m *MockSimulationService) ResumeSimulation(ctx context.Context) (*int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockSimulationService) EndSimulation(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSimulationService) ResetSimulation(ctx context.Context, confirmation string) error {
	args := m.Called(ctx, confirmation)
	return args.Error(0)
}

func (m *MockSimulationService) GetDayControl(ctx context.Context) (*models.DayControl, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayControl), args.Error(1)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
