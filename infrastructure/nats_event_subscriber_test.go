package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func envelopeBytes(t *testing.T, event events.Event, source string) []byte {
	t.Helper()
	envelope, err := BuildEnvelope(event, source, time.Now())
	require.NoError(t, err)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return data
}

func newRelay(t *testing.T) (*MessageConsumer, *NATSEventSubscriber) {
	t.Helper()
	consumer := NewMessageConsumer(NewNATSClient("nats://localhost:4222"))
	t.Cleanup(consumer.Stop)
	return consumer, NewNATSEventSubscriber(consumer, NewEventSubjectMapper(), ClientName)
}

func TestNATSEventSubscriber_RelaysCLISettlement(t *testing.T) {
	consumer, relay := newRelay(t)

	var received []events.Event
	require.NoError(t, relay.Subscribe(events.EventTypeTournamentSettled, func(ctx context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	}))
	assert.Equal(t, []string{SubjectTournamentSettled}, consumer.Subjects())

	settled := events.TournamentSettledEvent{
		TournamentID:   7,
		TournamentName: "Cup",
		Winners: []events.SettledWinner{
			{Rank: 1, AccountID: 100, Reward: decimal.NewNullDecimal(decimal.NewFromInt(50))},
		},
	}
	require.NoError(t, consumer.dispatch(SubjectTournamentSettled, envelopeBytes(t, settled, SourceCLI)))

	require.Len(t, received, 1)
	got, ok := received[0].(events.TournamentSettledEvent)
	require.True(t, ok, "relayed events are value types, got %T", received[0])
	assert.Equal(t, int64(7), got.TournamentID)
	require.Len(t, got.Winners, 1)
	assert.Equal(t, int64(100), got.Winners[0].AccountID)
	assert.True(t, got.Winners[0].Reward.Decimal.Equal(decimal.NewFromInt(50)))
}

func TestNATSEventSubscriber_SkipsOwnEvents(t *testing.T) {
	consumer, relay := newRelay(t)

	calls := 0
	require.NoError(t, relay.Subscribe(events.EventTypeReferralRegistered, func(ctx context.Context, event events.Event) error {
		calls++
		return nil
	}))

	referral := events.ReferralRegisteredEvent{ReferrerID: 1, NewAccountID: 2, Reward: decimal.NewFromInt(2)}
	require.NoError(t, consumer.dispatch(SubjectReferralRegistered, envelopeBytes(t, referral, ClientName)))
	assert.Equal(t, 0, calls, "serve already notified in process")

	require.NoError(t, consumer.dispatch(SubjectReferralRegistered, envelopeBytes(t, referral, SourceCLI)))
	assert.Equal(t, 1, calls)
}

func TestNATSEventSubscriber_AcksUndecodableMessages(t *testing.T) {
	consumer, relay := newRelay(t)

	calls := 0
	require.NoError(t, relay.Subscribe(events.EventTypeTournamentSettled, func(ctx context.Context, event events.Event) error {
		calls++
		return nil
	}))

	assert.NoError(t, consumer.dispatch(SubjectTournamentSettled, []byte("not json")))

	unknown, err := json.Marshal(EventEnvelope{EventType: "mystery", SourceService: SourceCLI, Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.NoError(t, consumer.dispatch(SubjectTournamentSettled, unknown))

	assert.Equal(t, 0, calls)
}

func TestNATSEventSubscriber_HandlerErrorsAreRedelivered(t *testing.T) {
	consumer, relay := newRelay(t)

	require.NoError(t, relay.Subscribe(events.EventTypeTournamentSettled, func(ctx context.Context, event events.Event) error {
		return errors.New("discord unavailable")
	}))

	err := consumer.dispatch(SubjectTournamentSettled, envelopeBytes(t, events.TournamentSettledEvent{TournamentID: 1}, SourceCLI))
	assert.ErrorContains(t, err, "discord unavailable")
}

func TestBuildEnvelope_CarriesSource(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

	envelope, err := BuildEnvelope(events.TournamentCreatedEvent{TournamentID: 4}, SourceCLI, now)
	require.NoError(t, err)
	assert.Equal(t, SourceCLI, envelope.SourceService)
	assert.Equal(t, string(events.EventTypeTournamentCreated), envelope.EventType)
	assert.Equal(t, time.UTC, envelope.Timestamp.Location())
	assert.True(t, now.Equal(envelope.Timestamp))
}

func TestNATSEventPublisher_WithSource(t *testing.T) {
	ctx := context.Background()
	client := new(mockMessagePublisher)
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil).WithSource(SourceCLI)

	var published []byte
	client.On("Publish", ctx, SubjectTournamentSettled, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil)

	require.NoError(t, publisher.Publish(ctx, events.TournamentSettledEvent{TournamentID: 2}))

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(published, &envelope))
	assert.Equal(t, SourceCLI, envelope.SourceService)
}
