package application

import (
	"context"

	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	log "github.com/sirupsen/logrus"
)

// RegisterApplicationSubscriptions wires the post-commit reactions to domain events.
// Handlers run after the unit of work has committed; nothing they do can undo it.
// The returned handler also serves events relayed from other processes.
func RegisterApplicationSubscriptions(bus *events.Bus, notifier service.Notifier, metrics *observability.MetricsProvider) *NotificationHandler {
	handler := NewNotificationHandler(notifier, metrics)

	bus.Subscribe(events.EventTypeTournamentSettled, handler.HandleTournamentSettled)
	bus.Subscribe(events.EventTypeReferralRegistered, handler.HandleReferralRegistered)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		change, err := AssertEventType[events.BalanceChangeEvent](event)
		if err != nil {
			log.WithError(err).Error("Unexpected balance change event")
			return
		}
		metrics.RecordBalanceTransaction(string(change.TransactionType))
	})
	return handler
}

// NotificationHandler turns domain events into direct messages
type NotificationHandler struct {
	notifier service.Notifier
	metrics  *observability.MetricsProvider
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier service.Notifier, metrics *observability.MetricsProvider) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		metrics:  metrics,
	}
}

// HandleTournamentSettled congratulates every winner of a settled tournament
func (h *NotificationHandler) HandleTournamentSettled(ctx context.Context, event events.Event) {
	settled, err := AssertEventType[events.TournamentSettledEvent](event)
	if err != nil {
		log.WithError(err).Error("Unexpected tournament settled event")
		return
	}

	delivered := 0
	for _, winner := range settled.Winners {
		if h.deliver(ctx, "winner", winner.AccountID, WinnerMessage(settled.TournamentName, winner)) {
			delivered++
		}
	}

	log.WithFields(log.Fields{
		"tournament_id": settled.TournamentID,
		"total_winners": len(settled.Winners),
		"successful":    delivered,
		"failed":        len(settled.Winners) - delivered,
	}).Info("Completed winner notifications")
}

// HandleReferralRegistered tells the referrer about the credited referral
func (h *NotificationHandler) HandleReferralRegistered(ctx context.Context, event events.Event) {
	referral, err := AssertEventType[events.ReferralRegisteredEvent](event)
	if err != nil {
		log.WithError(err).Error("Unexpected referral registered event")
		return
	}

	h.deliver(ctx, "referral", referral.ReferrerID, ReferralMessage(referral))
}

// deliver sends one message; failures are logged and swallowed
func (h *NotificationHandler) deliver(ctx context.Context, kind string, accountID int64, message string) bool {
	if err := h.notifier.Notify(ctx, accountID, message); err != nil {
		log.WithFields(log.Fields{
			"kind":       kind,
			"account_id": accountID,
			"error":      err,
		}).Warn("Failed to deliver notification")
		h.metrics.RecordNotification(kind, observability.OutcomeError)
		return false
	}
	h.metrics.RecordNotification(kind, observability.OutcomeSuccess)
	return true
}
