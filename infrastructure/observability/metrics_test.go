package observability

import (
	"context"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsProvider_DisabledRecordsNothing(t *testing.T) {
	cfg := config.NewTestConfig()
	mp := NewMetricsProvider(cfg)

	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordSettlement(TriggerSweep, OutcomeSuccess, 2, time.Second)
		mp.RecordReferral(OutcomeSuccess)
		mp.RecordNotification("winner", OutcomeError)
	})
}

func TestMetricsProvider_NilIsSafe(t *testing.T) {
	var mp *MetricsProvider
	assert.NotPanics(t, func() {
		mp.RecordSweepRun("expiry")
		mp.RecordBroadcast(3)
	})
}

func TestMetricsProvider_ConsoleExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "console"
	cfg.OTelServiceName = "starsbot-test"
	cfg.OTelExportIntervalMillis = 60000

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.True(t, mp.isEnabled())

	mp.RecordSettlement(TriggerManual, OutcomeSuccess, 1, 10*time.Millisecond)
	mp.RecordBalanceTransaction("tournament_prize")

	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	assert.Error(t, err)
}
