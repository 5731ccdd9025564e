package repository

import (
	"context"
	"fmt"

	"bourse/database"
	"bourse/events"
	"bourse/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                  *database.DB
	tx                  pgx.Tx
	ctx                 context.Context
	transactionalBus    *events.TransactionalBus
	dayControlRepo      service.DayControlRepository
	schedulerConfigRepo service.SchedulerConfigRepository
	companyRepo         service.CompanyRepository
	stockPriceRepo      service.StockPriceRepository
	financialReportRepo service.FinancialReportRepository
	brokerRepo          service.BrokerRepository
	participantRepo     service.ParticipantRepository
	holdingRepo         service.HoldingRepository
	transactionRepo     service.TransactionRepository
	interestPaymentRepo service.InterestPaymentRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.dayControlRepo = newDayControlRepositoryWithTx(tx)
	u.schedulerConfigRepo = newSchedulerConfigRepositoryWithTx(tx)
	u.companyRepo = newCompanyRepositoryWithTx(tx)
	u.stockPriceRepo = newStockPriceRepositoryWithTx(tx)
	u.financialReportRepo = newFinancialReportRepositoryWithTx(tx)
	u.brokerRepo = newBrokerRepositoryWithTx(tx)
	u.participantRepo = newParticipantRepositoryWithTx(tx)
	u.holdingRepo = newHoldingRepositoryWithTx(tx)
	u.transactionRepo = newTransactionRepositoryWithTx(tx)
	u.interestPaymentRepo = newInterestPaymentRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// DayControlRepository returns the day control repository for this unit of work
func (u *unitOfWork) DayControlRepository() service.DayControlRepository {
	if u.dayControlRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.dayControlRepo
}

// SchedulerConfigRepository returns the scheduler config repository for this unit of work
func (u *unitOfWork) SchedulerConfigRepository() service.SchedulerConfigRepository {
	if u.schedulerConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.schedulerConfigRepo
}

// CompanyRepository returns the company repository for this unit of work
func (u *unitOfWork) CompanyRepository() service.CompanyRepository {
	if u.companyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.companyRepo
}

// StockPriceRepository returns the stock price repository for this unit of work
func (u *unitOfWork) StockPriceRepository() service.StockPriceRepository {
	if u.stockPriceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.stockPriceRepo
}

// FinancialReportRepository returns the financial report repository for this unit of work
func (u *unitOfWork) FinancialReportRepository() service.FinancialReportRepository {
	if u.financialReportRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.financialReportRepo
}

// BrokerRepository returns the broker repository for this unit of work
func (u *unitOfWork) BrokerRepository() service.BrokerRepository {
	if u.brokerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.brokerRepo
}

// ParticipantRepository returns the participant repository for this unit of work
func (u *unitOfWork) ParticipantRepository() service.ParticipantRepository {
	if u.participantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participantRepo
}

// HoldingRepository returns the holding repository for this unit of work
func (u *unitOfWork) HoldingRepository() service.HoldingRepository {
	if u.holdingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.holdingRepo
}

// TransactionRepository returns the transaction repository for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// InterestPaymentRepository returns the interest payment repository for this unit of work
func (u *unitOfWork) InterestPaymentRepository() service.InterestPaymentRepository {
	if u.interestPaymentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.interestPaymentRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
