package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/botmakerspc/Stars-magnat-bota/api"
	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/bot"
	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/repository"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting starsbot...")

	cfg := config.Get()
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.Warnf("Failed to initialize metrics, continuing without them: %v", err)
	}
	metrics := observability.GetMetrics()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	ops := application.NewOperations(uowFactory, cfg, metrics)

	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}, ops, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	notifier := discordBot.Notifier()
	log.Info("Discord bot initialized successfully")

	notifications := application.RegisterApplicationSubscriptions(eventBus, notifier, metrics)

	var natsClient *infrastructure.NATSClient
	var consumer *infrastructure.MessageConsumer
	if cfg.NATSEnabled {
		natsClient, consumer, err = startMessaging(ctx, cfg, ops, eventBus, notifications, metrics)
		if err != nil {
			discordBot.Close()
			return err
		}
	}

	scheduler, err := application.NewScheduler(ops, notifier, cfg, metrics)
	if err != nil {
		discordBot.Close()
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		discordBot.Close()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.New(ops, cfg.AdminAPIToken).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("Admin API listening on %s", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Admin API stopped: %v", err)
			}
		}()
	}

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error shutting down admin API: %v", err)
		}
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Errorf("Error stopping scheduler: %v", err)
	}
	if consumer != nil {
		consumer.Stop()
	}

	// Pending notifications go out before the session closes
	eventBus.Wait()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Errorf("Error closing NATS client: %v", err)
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}

// startMessaging connects to NATS and forwards domain events to JetStream.
// It consumes the referral intake and relays events published by admin CLI runs.
func startMessaging(ctx context.Context, cfg *config.Config, ops *application.Operations, bus *events.Bus, notifications *application.NotificationHandler, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, *infrastructure.MessageConsumer, error) {
	log.Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := natsClient.EnsureEventStream(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	publisher := infrastructure.NewNATSEventPublisher(natsClient, mapper, metrics)
	publisher.RegisterWithBus(bus)

	consumer := infrastructure.NewMessageConsumer(natsClient)
	referrals := application.NewReferralConsumer(ops, metrics)
	consumer.RegisterHandler(application.ReferralSubject, referrals.HandleMessage)

	relay := infrastructure.NewNATSEventSubscriber(consumer, mapper, infrastructure.ClientName)
	relays := map[events.EventType]func(context.Context, events.Event){
		events.EventTypeTournamentSettled:  notifications.HandleTournamentSettled,
		events.EventTypeReferralRegistered: notifications.HandleReferralRegistered,
	}
	for eventType, handle := range relays {
		if err := relay.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			handle(ctx, event)
			return nil
		}); err != nil {
			natsClient.Close()
			return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
	}
	if err := consumer.Start(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to start message consumer: %w", err)
	}

	log.Info("NATS messaging started")
	return natsClient, consumer, nil
}
