package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// State machine and configuration errors. These are expected race
// outcomes for the scheduler and must be matched with errors.Is.
var (
	// ErrNotConfigured means the simulation record does not exist yet
	ErrNotConfigured = errors.New("simulation not configured")

	// ErrAlreadyStarted means start was called on a running simulation
	ErrAlreadyStarted = errors.New("simulation already started")

	// ErrNotActive means the operation requires a running simulation
	ErrNotActive = errors.New("simulation not active")

	// ErrLimitReached means the simulation is at its final day
	ErrLimitReached = errors.New("day limit reached")

	// ErrDayConflict means a concurrent advance won the race for this day
	ErrDayConflict = errors.New("day advanced concurrently")

	// ErrBadConfirmation means the reset confirmation token did not match
	ErrBadConfirmation = errors.New("reset confirmation mismatch")
)

// Trade validation errors
var (
	// ErrNoBroker means the participant has no assigned broker
	ErrNoBroker = errors.New("participant has no broker")

	// ErrTradingClosed means trading is closed on or after the final day
	ErrTradingClosed = errors.New("trading closed for the final day")

	// ErrDailyLimitReached means the participant already traded this day
	ErrDailyLimitReached = errors.New("trade batch already executed today")

	// ErrParticipantNotFound means the participant id resolves to nothing
	ErrParticipantNotFound = errors.New("participant not found")
)

// InvalidStockError means an order's stock code resolves to no company
type InvalidStockError struct {
	Code string
}

func (e *InvalidStockError) Error() string {
	return fmt.Sprintf("unknown stock code %q", e.Code)
}

// PriceUnavailableError means a company has no active price for the day
type PriceUnavailableError struct {
	Code string
	Day  int
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("no active price for %s on day %d", e.Code, e.Day)
}

// InsufficientSharesError means a sell exceeds the current holding
type InsufficientSharesError struct {
	Code string
	Have int
	Need int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: have %d, need %d", e.Code, e.Have, e.Need)
}

// InsufficientBalanceError means the batch would overdraw the cash balance
type InsufficientBalanceError struct {
	Shortfall decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: short by %s", e.Shortfall.StringFixed(2))
}
