package events

import (
	"context"
	"sync"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypeReferralRegistered EventType = "referral_registered"
	EventTypeTournamentCreated  EventType = "tournament_created"
	EventTypeTournamentSettled  EventType = "tournament_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed ledger mutation
type BalanceChangeEvent struct {
	AccountID       int64                  `json:"account_id"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
	TransactionType models.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// ReferralRegisteredEvent is raised once a referral has been credited
type ReferralRegisteredEvent struct {
	NewAccountID  int64           `json:"new_account_id"`
	NewAccountTag string          `json:"new_account_tag"`
	ReferrerID    int64           `json:"referrer_id"`
	Reward        decimal.Decimal `json:"reward"`
	TournamentID  *int64          `json:"tournament_id,omitempty"`
	ReferralCount int             `json:"referral_count"`
}

func (e ReferralRegisteredEvent) Type() EventType {
	return EventTypeReferralRegistered
}

// TournamentCreatedEvent is raised when an administrator creates a tournament
type TournamentCreatedEvent struct {
	TournamentID int64     `json:"tournament_id"`
	Name         string    `json:"name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

func (e TournamentCreatedEvent) Type() EventType {
	return EventTypeTournamentCreated
}

// SettledWinner is one paid placement of a settled tournament
type SettledWinner struct {
	Rank      int                 `json:"rank"`
	AccountID int64               `json:"account_id"`
	Score     int                 `json:"score"`
	Reward    decimal.NullDecimal `json:"reward"`
	AssetRef  string              `json:"asset_ref"`
}

// TournamentSettledEvent is raised after a settlement has committed
type TournamentSettledEvent struct {
	TournamentID   int64           `json:"tournament_id"`
	TournamentName string          `json:"tournament_name"`
	SettledAt      time.Time       `json:"settled_at"`
	Winners        []SettledWinner `json:"winners"`
}

func (e TournamentSettledEvent) Type() EventType {
	return EventTypeTournamentSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
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

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit dispatches an event to all registered handlers asynchronously
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until all handlers dispatched so far have returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus flushing into real
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit.
// Handlers get a background context so they outlive the request that committed.
func (b *TransactionalBus) Flush() {
	if len(b.pending) == 0 {
		return
	}

	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
