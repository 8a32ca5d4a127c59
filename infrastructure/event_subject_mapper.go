package infrastructure

import (
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/events"
)

// Subjects domain events are published on
const (
	SubjectTournamentSettled  = "starsbot.tournament.settled"
	SubjectTournamentCreated  = "starsbot.tournament.created"
	SubjectReferralRegistered = "starsbot.referral.registered"
	SubjectBalanceChanged     = "starsbot.balance.changed"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeTournamentSettled:
		return SubjectTournamentSettled
	case events.EventTypeTournamentCreated:
		return SubjectTournamentCreated
	case events.EventTypeReferralRegistered:
		return SubjectReferralRegistered
	case events.EventTypeBalanceChange:
		return SubjectBalanceChanged
	default:
		return fmt.Sprintf("starsbot.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectTournamentSettled:
		return events.EventTypeTournamentSettled
	case SubjectTournamentCreated:
		return events.EventTypeTournamentCreated
	case SubjectReferralRegistered:
		return events.EventTypeReferralRegistered
	case SubjectBalanceChanged:
		return events.EventTypeBalanceChange
	default:
		return events.EventType(subject)
	}
}

// GetAllEventTypes returns every event type forwarded to NATS
func (m *EventSubjectMapper) GetAllEventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeTournamentSettled,
		events.EventTypeTournamentCreated,
		events.EventTypeReferralRegistered,
		events.EventTypeBalanceChange,
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectTournamentSettled,
		SubjectTournamentCreated,
		SubjectReferralRegistered,
		SubjectBalanceChanged,
	}
}
