package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	// ClientName identifies this service on the NATS server and prefixes durable consumers
	ClientName = "starsbot"

	// EventStreamName is the JetStream stream holding every starsbot subject
	EventStreamName = "starsbot_events"
)

// EventStreamSubjects are the subjects captured by EventStreamName
var EventStreamSubjects = []string{"starsbot.>"}

var errNotConnected = errors.New("not connected to NATS JetStream")

// NATSOptions tunes connection and delivery behaviour
type NATSOptions struct {
	MaxReconnects int
	ReconnectWait time.Duration
	MaxDeliver    int           // Deliveries before a failing message is terminated
	AckWait       time.Duration // Redelivery timeout for unacknowledged messages
	StreamMaxAge  time.Duration
}

// DefaultNATSOptions returns the options used in production
func DefaultNATSOptions() NATSOptions {
	return NATSOptions{
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
		MaxDeliver:    3,
		AckWait:       30 * time.Second,
		StreamMaxAge:  7 * 24 * time.Hour,
	}
}

// NATSClient wraps a NATS connection with JetStream
type NATSClient struct {
	servers       string
	opts          NATSOptions
	nc            *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

// NewNATSClient creates a client with DefaultNATSOptions
func NewNATSClient(servers string) *NATSClient {
	return NewNATSClientWithOptions(servers, DefaultNATSOptions())
}

func NewNATSClientWithOptions(servers string, opts NATSOptions) *NATSClient {
	return &NATSClient{
		servers:       servers,
		opts:          opts,
		subscriptions: make(map[string]*nats.Subscription),
	}
}

// Connect dials the servers and opens a JetStream context
func (c *NATSClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nc, err := nats.Connect(c.servers,
		nats.Name(ClientName),
		nats.MaxReconnects(c.opts.MaxReconnects),
		nats.ReconnectWait(c.opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			entry := log.WithError(err)
			if sub != nil {
				entry = entry.WithField("subject", sub.Subject)
			}
			entry.Error("NATS async error")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()

	log.WithField("servers", c.servers).Info("Connected to NATS with JetStream")
	return nil
}

func (c *NATSClient) jetStream() (nats.JetStreamContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, errNotConnected
	}
	return c.js, nil
}

// ConsumerName derives the durable consumer name for a subject
func ConsumerName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "wildcard", ">", "all")
	return ClientName + "-" + r.Replace(subject)
}

// Subscribe registers a durable, manually acknowledged handler for subject.
// A failing message is redelivered until MaxDeliver, then terminated.
func (c *NATSClient) Subscribe(subject string, handler func([]byte) error) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	sub, err := js.Subscribe(subject, func(msg *nats.Msg) { c.handle(subject, msg, handler) },
		nats.Durable(ConsumerName(subject)),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(c.opts.MaxDeliver),
		nats.AckWait(c.opts.AckWait),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subscriptions[subject] = sub
	c.mu.Unlock()

	log.WithField("subject", subject).Info("Subscribed to NATS subject")
	return nil
}

func (c *NATSClient) handle(subject string, msg *nats.Msg, handler func([]byte) error) {
	err := handler(msg.Data)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			log.WithError(ackErr).Error("Failed to ACK message")
		}
		return
	}

	delivered := uint64(1)
	if meta, metaErr := msg.Metadata(); metaErr == nil {
		delivered = meta.NumDelivered
	}
	entry := log.WithFields(log.Fields{
		"subject":   subject,
		"delivered": delivered,
		"error":     err,
	})

	if c.opts.MaxDeliver > 0 && delivered >= uint64(c.opts.MaxDeliver) {
		entry.Error("Giving up on message after final delivery")
		if termErr := msg.Term(); termErr != nil {
			log.WithError(termErr).Error("Failed to TERM message")
		}
		return
	}

	entry.Warn("Failed to process message, requesting redelivery")
	if nakErr := msg.Nak(); nakErr != nil {
		log.WithError(nakErr).Error("Failed to NAK message")
	}
}

// Close unsubscribes everything and closes the connection
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for subject, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unsubscribe from %s: %w", subject, err))
		}
	}
	c.subscriptions = make(map[string]*nats.Subscription)

	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
		c.js = nil
		log.Info("NATS connection closed")
	}

	return errors.Join(errs...)
}

// IsConnected returns true if the client is connected to NATS
func (c *NATSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nc != nil && c.nc.IsConnected()
}

// EnsureEventStream creates the starsbot stream, or widens its subjects when
// an older deployment created it with a narrower set
func (c *NATSClient) EnsureEventStream() error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	info, err := js.StreamInfo(EventStreamName)
	switch {
	case err == nil:
		if subjectsCovered(info.Config.Subjects, EventStreamSubjects) {
			return nil
		}
		cfg := info.Config
		cfg.Subjects = mergeSubjects(cfg.Subjects, EventStreamSubjects)
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", EventStreamName, err)
		}
		log.WithField("subjects", cfg.Subjects).Info("Updated JetStream stream subjects")
		return nil
	case !errors.Is(err, nats.ErrStreamNotFound):
		return fmt.Errorf("failed to look up stream %s: %w", EventStreamName, err)
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:        EventStreamName,
		Description: "Stars bot referral intake and domain events",
		Subjects:    EventStreamSubjects,
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		MaxAge:      c.opts.StreamMaxAge,
		Replicas:    1,
	}); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", EventStreamName, err)
	}

	log.WithField("stream", EventStreamName).Info("Created JetStream stream")
	return nil
}

func subjectsCovered(have, want []string) bool {
	for _, s := range want {
		if !slices.Contains(have, s) {
			return false
		}
	}
	return true
}

func mergeSubjects(have, want []string) []string {
	merged := slices.Clone(have)
	for _, s := range want {
		if !slices.Contains(merged, s) {
			merged = append(merged, s)
		}
	}
	return merged
}

// Publish publishes a message to subject through JetStream
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	if _, err := js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"size":    len(data),
	}).Debug("Published message to NATS")
	return nil
}
