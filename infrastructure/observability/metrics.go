package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the bot
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	settlementsCounter           metric.Int64Counter
	trophiesCounter              metric.Int64Counter
	sweepRunsCounter             metric.Int64Counter
	broadcastsCounter            metric.Int64Counter
	settlementLatencyHist        metric.Float64Histogram
	referralsCounter             metric.Int64Counter
	notificationsCounter         metric.Int64Counter
	natsMessagesReceivedCounter  metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	balanceTransactionsCounter   metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize builds the meter provider. Disabled or "none" exporters leave the
// provider initialized without instruments, so every Record call is a no-op.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	exporter, err := newExporter(ctx, mp.config)
	if err != nil {
		return err
	}
	if exporter == nil {
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(mp.config.OTelServiceName),
		attribute.String("environment", mp.config.Environment),
	))
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 30 * time.Second
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.WithFields(log.Fields{
		"exporter": exporterType(mp.config),
		"interval": interval.String(),
	}).Info("Metrics provider initialized")
	return nil
}

func exporterType(cfg *config.Config) string {
	if cfg.OTelExporterType == "" {
		return "none"
	}
	return cfg.OTelExporterType
}

// newExporter returns nil without error when export is switched off
func newExporter(ctx context.Context, cfg *config.Config) (sdkmetric.Exporter, error) {
	switch exporterType(cfg) {
	case "none":
		return nil, nil
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		return exporter, nil
	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", cfg.OTelOTLPEndpoint, err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.OTelExporterType)
	}
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.settlementsCounter, SettlementsTotal, "Total number of tournament settlement attempts"},
		{&mp.trophiesCounter, TrophiesAwarded, "Total number of trophies awarded"},
		{&mp.sweepRunsCounter, SweepRunsTotal, "Total number of scheduler sweep runs"},
		{&mp.broadcastsCounter, BroadcastsSent, "Total number of tournament start messages delivered"},
		{&mp.referralsCounter, ReferralsTotal, "Total number of referral events processed"},
		{&mp.notificationsCounter, NotificationsTotal, "Total number of direct messages attempted"},
		{&mp.natsMessagesReceivedCounter, NATSMessagesReceivedTotal, "Total number of NATS messages received"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published"},
		{&mp.balanceTransactionsCounter, BalanceTransactionsTotal, "Total number of balance transactions"},
	}

	var err error
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	mp.settlementLatencyHist, err = mp.meter.Float64Histogram(
		SettlementLatency,
		metric.WithDescription("Duration of tournament settlements in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordSettlement records a settlement attempt with its outcome and duration
func (mp *MetricsProvider) RecordSettlement(trigger, outcome string, trophies int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String(LabelTrigger, trigger),
		attribute.String(LabelOutcome, outcome),
	)
	mp.settlementsCounter.Add(ctx, 1, attrs)
	mp.settlementLatencyHist.Record(ctx, duration.Seconds(), attrs)
	if trophies > 0 {
		mp.trophiesCounter.Add(ctx, int64(trophies))
	}
}

// RecordSweepRun records one run of a scheduled job
func (mp *MetricsProvider) RecordSweepRun(job string) {
	if !mp.isEnabled() {
		return
	}
	mp.sweepRunsCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelType, job)))
}

// RecordBroadcast records delivered start messages
func (mp *MetricsProvider) RecordBroadcast(delivered int) {
	if !mp.isEnabled() || delivered == 0 {
		return
	}
	mp.broadcastsCounter.Add(context.Background(), int64(delivered))
}

// RecordReferral records a processed referral event
func (mp *MetricsProvider) RecordReferral(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.referralsCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelOutcome, outcome)))
}

// RecordNotification records a direct message attempt
func (mp *MetricsProvider) RecordNotification(kind, outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.notificationsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelType, kind),
		attribute.String(LabelOutcome, outcome),
	))
}

// RecordNATSMessageReceived records a NATS message being received
func (mp *MetricsProvider) RecordNATSMessageReceived(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesReceivedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublishedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// RecordBalanceTransaction records a ledger mutation
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTransactionsCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelType, transactionType)))
}

// isEnabled checks if instruments exist. A nil provider is valid and records nothing.
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
