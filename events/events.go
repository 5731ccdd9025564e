package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeSimulationStarted EventType = "simulation_started"
	EventTypeDayChanged        EventType = "day_changed"
	EventTypeInterestApplied   EventType = "interest_applied"
	EventTypeTradesExecuted    EventType = "trades_executed"
	EventTypeSimulationEnded   EventType = "simulation_ended"
	EventTypeSimulationReset   EventType = "simulation_reset"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SimulationStartedEvent is emitted when the simulation enters day 1
type SimulationStartedEvent struct {
	TotalDays int
}

func (e SimulationStartedEvent) Type() EventType {
	return EventTypeSimulationStarted
}

// DayChangedEvent is emitted after a day advance commits. Observers may
// rely on the new day's prices and reports being active when they see it.
type DayChangedEvent struct {
	Day       int
	TotalDays int
}

func (e DayChangedEvent) Type() EventType {
	return EventTypeDayChanged
}

// InterestAppliedEvent is emitted after a day advance that credited interest
type InterestAppliedEvent struct {
	Day           int
	UsersCredited int
	TotalInterest decimal.Decimal
}

func (e InterestAppliedEvent) Type() EventType {
	return EventTypeInterestApplied
}

// TradesExecutedEvent is emitted after a trade batch commits
type TradesExecutedEvent struct {
	ParticipantID int64
	BatchID       uuid.UUID
	Day           int
	OrderCount    int
	NewBalance    decimal.Decimal
}

func (e TradesExecutedEvent) Type() EventType {
	return EventTypeTradesExecuted
}

// SimulationEndedEvent is emitted when the simulation is ended
type SimulationEndedEvent struct {
	FinalDay int
}

func (e SimulationEndedEvent) Type() EventType {
	return EventTypeSimulationEnded
}

// SimulationResetEvent is emitted after a confirmed reset commits
type SimulationResetEvent struct {
	ParticipantsRestored int
}

func (e SimulationResetEvent) Type() EventType {
	return EventTypeSimulationReset
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously; a failing or panicking handler never affects the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits,
// so observers never see an event for state that did not land.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to event bus")

	// Events outlive the transaction context that produced them.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
