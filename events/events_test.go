package events

import (
	"context"
	"sync"
	"testing"

	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversAfterCommit(t *testing.T) {
	bus := NewBus()
	txBus := NewTransactionalBus(bus)

	var mu sync.Mutex
	var received []BalanceChangeEvent
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.(BalanceChangeEvent))
	})

	event := BalanceChangeEvent{
		AccountID:       123456,
		OldBalance:      decimal.NewFromInt(10),
		NewBalance:      decimal.NewFromInt(12),
		ChangeAmount:    decimal.NewFromInt(2),
		TransactionType: models.TransactionTypeReferralReward,
	}
	txBus.Publish(event)

	// Nothing is delivered before Flush
	bus.Wait()
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()
	assert.Len(t, txBus.pending, 1)

	txBus.Flush()
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, int64(123456), received[0].AccountID)
	assert.True(t, received[0].ChangeAmount.Equal(decimal.NewFromInt(2)))
	assert.Empty(t, txBus.pending)
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	bus := NewBus()
	txBus := NewTransactionalBus(bus)

	called := false
	var mu sync.Mutex
	bus.Subscribe(EventTypeTournamentSettled, func(ctx context.Context, event Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	})

	txBus.Publish(TournamentSettledEvent{TournamentID: 1})
	txBus.Discard()
	txBus.Flush()
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, called)
}

func TestBus_RoutesByTypeAndRecoversPanics(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	counts := map[EventType]int{}
	record := func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[event.Type()]++
	}

	bus.Subscribe(EventTypeReferralRegistered, record)
	bus.Subscribe(EventTypeReferralRegistered, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeTournamentCreated, record)

	ctx := context.Background()
	bus.Emit(ctx, ReferralRegisteredEvent{ReferrerID: 1})
	bus.Emit(ctx, ReferralRegisteredEvent{ReferrerID: 2})
	bus.Emit(ctx, TournamentCreatedEvent{TournamentID: 3})
	bus.Emit(ctx, BalanceChangeEvent{AccountID: 4})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, counts[EventTypeReferralRegistered])
	assert.Equal(t, 1, counts[EventTypeTournamentCreated])
	assert.Equal(t, 0, counts[EventTypeBalanceChange])
}
