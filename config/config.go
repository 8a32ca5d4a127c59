package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/botmakerspc/Stars-magnat-bota/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string
	AdminDiscordID int64 // The single operator allowed to run admin commands

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Admin HTTP API
	HTTPAddr      string
	AdminAPIToken string

	// Economy
	ReferralReward   decimal.Decimal
	DailyBonusAmount decimal.Decimal
	MinWithdrawal    decimal.Decimal

	// Tournaments
	Timezone               string // Used to parse admin-supplied start times
	AllowOverlappingWindow bool

	// Scheduler intervals
	ExpirySweepInterval    time.Duration
	BroadcastSweepInterval time.Duration
	BroadcastWindow        time.Duration // How far back a start time still counts as "just started"
	BroadcastSendDelay     time.Duration // Pause between broadcast recipients
	BonusReminderInterval  time.Duration
	CleanupInterval        time.Duration
	BroadcastMarkerTTL     time.Duration

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Location returns the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdmin reports whether the given platform id is the configured operator
func (c *Config) IsAdmin(accountID int64) bool {
	return c.AdminDiscordID != 0 && c.AdminDiscordID == accountID
}

// load reads configuration from the environment (and an optional .env file)
func load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := newViper()

	referralReward, err := decimal.NewFromString(v.GetString("REFERRAL_REWARD"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_REWARD: %w", err)
	}
	dailyBonus, err := decimal.NewFromString(v.GetString("DAILY_BONUS_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAILY_BONUS_AMOUNT: %w", err)
	}
	minWithdrawal, err := decimal.NewFromString(v.GetString("MIN_WITHDRAWAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_WITHDRAWAL: %w", err)
	}

	config := &Config{
		DiscordToken:   v.GetString("DISCORD_TOKEN"),
		DiscordGuildID: v.GetString("DISCORD_GUILD_ID"),
		AdminDiscordID: v.GetInt64("ADMIN_DISCORD_ID"),

		DatabaseURL:  v.GetString("DATABASE_URL"),
		DatabaseName: v.GetString("DATABASE_NAME"),

		NATSEnabled: v.GetBool("NATS_ENABLED"),
		NATSServers: v.GetString("NATS_SERVERS"),

		HTTPAddr:      v.GetString("HTTP_ADDR"),
		AdminAPIToken: v.GetString("ADMIN_API_TOKEN"),

		ReferralReward:   referralReward,
		DailyBonusAmount: dailyBonus,
		MinWithdrawal:    minWithdrawal,

		Timezone:               v.GetString("TIMEZONE"),
		AllowOverlappingWindow: v.GetBool("TOURNAMENT_ALLOW_OVERLAP"),

		ExpirySweepInterval:    v.GetDuration("EXPIRY_SWEEP_INTERVAL"),
		BroadcastSweepInterval: v.GetDuration("BROADCAST_SWEEP_INTERVAL"),
		BroadcastWindow:        v.GetDuration("BROADCAST_WINDOW"),
		BroadcastSendDelay:     v.GetDuration("BROADCAST_SEND_DELAY"),
		BonusReminderInterval:  v.GetDuration("BONUS_REMINDER_INTERVAL"),
		CleanupInterval:        v.GetDuration("CLEANUP_INTERVAL"),
		BroadcastMarkerTTL:     v.GetDuration("BROADCAST_MARKER_TTL"),

		OTelEnabled:              v.GetBool("OTEL_ENABLED"),
		OTelExporterType:         v.GetString("OTEL_EXPORTER_TYPE"),
		OTelOTLPEndpoint:         v.GetString("OTEL_OTLP_ENDPOINT"),
		OTelServiceName:          v.GetString("OTEL_SERVICE_NAME"),
		OTelExportIntervalMillis: v.GetInt("OTEL_EXPORT_INTERVAL_MS"),

		LogLevel:    v.GetString("LOG_LEVEL"),
		Environment: v.GetString("ENVIRONMENT"),
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// newViper builds a viper instance bound to the environment with all defaults applied
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("NATS_SERVERS", "nats://nats:4222")
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("REFERRAL_REWARD", "2")
	v.SetDefault("DAILY_BONUS_AMOUNT", "0.2")
	v.SetDefault("MIN_WITHDRAWAL", "50")

	v.SetDefault("TIMEZONE", "Europe/Moscow")
	v.SetDefault("TOURNAMENT_ALLOW_OVERLAP", false)

	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "5m")
	v.SetDefault("BROADCAST_SWEEP_INTERVAL", "1m")
	v.SetDefault("BROADCAST_WINDOW", "2m")
	v.SetDefault("BROADCAST_SEND_DELAY", "50ms")
	v.SetDefault("BONUS_REMINDER_INTERVAL", "1h")
	v.SetDefault("CLEANUP_INTERVAL", "6h")
	v.SetDefault("BROADCAST_MARKER_TTL", "168h")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_TYPE", "none")
	v.SetDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317")
	v.SetDefault("OTEL_SERVICE_NAME", "starsbot")
	v.SetDefault("OTEL_EXPORT_INTERVAL_MS", 30000)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENVIRONMENT", "development")

	return v
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.ReferralReward.IsNegative() || c.DailyBonusAmount.IsNegative() || c.MinWithdrawal.IsNegative() {
		return fmt.Errorf("economy amounts must not be negative")
	}
	if c.ExpirySweepInterval <= 0 || c.BroadcastSweepInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if c.BroadcastMarkerTTL <= c.BroadcastWindow {
		return fmt.Errorf("BROADCAST_MARKER_TTL (%s) must exceed BROADCAST_WINDOW (%s)", c.BroadcastMarkerTTL, c.BroadcastWindow)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// ValidateBot checks the settings only the serving process needs
func (c *Config) ValidateBot() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:            "test",
		AdminDiscordID:         999999,
		ReferralReward:         decimal.NewFromInt(2),
		DailyBonusAmount:       decimal.RequireFromString("0.2"),
		MinWithdrawal:          decimal.NewFromInt(50),
		Timezone:               "UTC",
		ExpirySweepInterval:    5 * time.Minute,
		BroadcastSweepInterval: time.Minute,
		BroadcastWindow:        2 * time.Minute,
		BonusReminderInterval:  time.Hour,
		CleanupInterval:        6 * time.Hour,
		BroadcastMarkerTTL:     7 * 24 * time.Hour,
		OTelExporterType:       "none",
		LogLevel:               "info",
	}
}
