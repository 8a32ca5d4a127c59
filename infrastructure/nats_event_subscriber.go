package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/events"

	log "github.com/sirupsen/logrus"
)

// EventHandler consumes a domain event decoded from NATS.
// A returned error asks the broker to redeliver.
type EventHandler func(ctx context.Context, event events.Event) error

// NATSEventSubscriber decodes domain events published by other starsbot
// processes and routes them to local handlers. Envelopes carrying the
// subscriber's own source were already handled in process and are skipped.
type NATSEventSubscriber struct {
	consumer      *MessageConsumer
	subjectMapper *EventSubjectMapper
	source        string
	handlers      map[string]EventHandler
}

// NewNATSEventSubscriber creates a subscriber registering on consumer.
// Subscribe must be called before the consumer starts.
func NewNATSEventSubscriber(consumer *MessageConsumer, subjectMapper *EventSubjectMapper, source string) *NATSEventSubscriber {
	return &NATSEventSubscriber{
		consumer:      consumer,
		subjectMapper: subjectMapper,
		source:        source,
		handlers:      make(map[string]EventHandler),
	}
}

// Subscribe registers a handler for an event type
func (s *NATSEventSubscriber) Subscribe(eventType events.EventType, handler EventHandler) error {
	subject, err := s.subjectFor(eventType)
	if err != nil {
		return err
	}
	s.handlers[subject] = handler

	log.WithFields(log.Fields{
		"eventType": eventType,
		"subject":   subject,
	}).Info("Registering event handler for subject")

	s.consumer.RegisterHandler(subject, func(ctx context.Context, data []byte) error {
		return s.handleMessage(ctx, subject, data)
	})
	return nil
}

// handleMessage decodes one envelope and runs the subject's handler.
// Undecodable messages are acknowledged since redelivery cannot fix them.
func (s *NATSEventSubscriber) handleMessage(ctx context.Context, subject string, data []byte) error {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Warn("Dropping malformed event envelope")
		return nil
	}

	if envelope.SourceService == s.source {
		return nil
	}

	eventType := events.EventType(envelope.EventType)
	event, err := deserializeEvent(eventType, envelope.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"subject":     subject,
			"eventType":   eventType,
			"eventId":     envelope.EventID,
			"payloadSize": len(envelope.Payload),
			"error":       err,
		}).Warn("Dropping undecodable event payload")
		return nil
	}

	handler, ok := s.handlers[subject]
	if !ok {
		return fmt.Errorf("no handler registered for subject %s", subject)
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"eventId": envelope.EventID,
		"source":  envelope.SourceService,
	}).Debug("Handling relayed event")

	if err := handler(ctx, event); err != nil {
		return fmt.Errorf("failed to handle %s event %s: %w", eventType, envelope.EventID, err)
	}
	return nil
}

// deserializeEvent decodes payload into the value type local handlers assert on
func deserializeEvent(eventType events.EventType, payload []byte) (events.Event, error) {
	switch eventType {
	case events.EventTypeTournamentSettled:
		var e events.TournamentSettledEvent
		err := json.Unmarshal(payload, &e)
		return e, err
	case events.EventTypeReferralRegistered:
		var e events.ReferralRegisteredEvent
		err := json.Unmarshal(payload, &e)
		return e, err
	case events.EventTypeTournamentCreated:
		var e events.TournamentCreatedEvent
		err := json.Unmarshal(payload, &e)
		return e, err
	case events.EventTypeBalanceChange:
		var e events.BalanceChangeEvent
		err := json.Unmarshal(payload, &e)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func (s *NATSEventSubscriber) subjectFor(eventType events.EventType) (string, error) {
	for _, subject := range s.subjectMapper.GetAllSubjects() {
		if s.subjectMapper.MapSubjectToEventType(subject) == eventType {
			return subject, nil
		}
	}
	return "", fmt.Errorf("no subject mapped for event type %s", eventType)
}
