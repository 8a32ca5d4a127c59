package service

import (
	"context"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"
)

// RecordBalanceChange records a balance history entry and publishes the matching event.
// Every ledger mutation goes through here so the audit trail and event stream agree.
func RecordBalanceChange(ctx context.Context, historyRepo BalanceHistoryRepository, publisher EventPublisher, history *models.BalanceHistory) error {
	if err := historyRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	publisher.Publish(events.BalanceChangeEvent{
		AccountID:       history.AccountID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
	})

	return nil
}
