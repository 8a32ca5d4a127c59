package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure"
	"github.com/botmakerspc/Stars-magnat-bota/repository"
)

// withOperations opens the database for a one-shot admin command.
// With NATS enabled, domain events are published under SourceCLI and a running
// serve process relays the settled and referral events to Discord. Without NATS
// they are only logged and no direct messages are sent.
func withOperations(ctx context.Context, fn func(ops *application.Operations) error) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()
	if cfg.NATSEnabled {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			log.Warnf("NATS unavailable, events from this command will not be forwarded: %v", err)
		} else {
			defer natsClient.Close()
			if err := natsClient.EnsureEventStream(); err != nil {
				log.Warnf("Failed to ensure event stream: %v", err)
			}
			infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), nil).
				WithSource(infrastructure.SourceCLI).
				RegisterWithBus(bus)
		}
	}
	for _, eventType := range infrastructure.NewEventSubjectMapper().GetAllEventTypes() {
		bus.Subscribe(eventType, func(_ context.Context, event events.Event) {
			log.WithField("event_type", event.Type()).Debug("Event emitted")
		})
	}

	ops := application.NewOperations(repository.NewUnitOfWorkFactory(db, bus), cfg, nil)
	err = fn(ops)

	// Forwarding runs asynchronously; wait before the connection closes
	bus.Wait()
	return err
}
