package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	log "github.com/sirupsen/logrus"
)

// ReferralSubject is where the chat gateway publishes accounts arriving through a referral link
const ReferralSubject = "starsbot.referrals.registered"

// ReferralProcessor is the part of Operations the referral consumer needs
type ReferralProcessor interface {
	ProcessReferral(ctx context.Context, req ReferralRequest) (*service.ReferralResult, error)
}

// ReferralConsumer decodes referral messages and feeds them to the referral intake
type ReferralConsumer struct {
	processor ReferralProcessor
	metrics   *observability.MetricsProvider
}

// NewReferralConsumer creates a new referral consumer
func NewReferralConsumer(processor ReferralProcessor, metrics *observability.MetricsProvider) *ReferralConsumer {
	return &ReferralConsumer{
		processor: processor,
		metrics:   metrics,
	}
}

// HandleMessage processes one referral message. A returned error asks the broker
// to redeliver; malformed and already-applied referrals are acknowledged.
func (c *ReferralConsumer) HandleMessage(ctx context.Context, data []byte) error {
	c.metrics.RecordNATSMessageReceived("referral")

	var req ReferralRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.WithError(err).Warn("Dropping malformed referral message")
		return nil
	}
	if req.NewAccountID == 0 || req.ReferrerID == 0 {
		log.WithFields(log.Fields{
			"new_account_id": req.NewAccountID,
			"referrer_id":    req.ReferrerID,
		}).Warn("Dropping referral message without account ids")
		return nil
	}

	result, err := c.processor.ProcessReferral(ctx, req)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"new_account_id": result.NewAccountID,
			"referrer_id":    result.ReferrerID,
			"referral_count": result.ReferralCount,
		}).Info("Referral processed")
		return nil
	case errors.Is(err, service.ErrAlreadyReferred), errors.Is(err, service.ErrSelfReferral):
		log.WithFields(log.Fields{
			"new_account_id": req.NewAccountID,
			"referrer_id":    req.ReferrerID,
			"reason":         err.Error(),
		}).Info("Referral ignored")
		return nil
	case errors.Is(err, service.ErrAccountNotFound):
		// The referrer never talked to the bot; redelivery cannot fix that
		log.WithFields(log.Fields{
			"new_account_id": req.NewAccountID,
			"referrer_id":    req.ReferrerID,
		}).Warn("Referral from unknown referrer ignored")
		return nil
	default:
		return fmt.Errorf("failed to process referral: %w", err)
	}
}
