package cmd

import (
	"testing"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"tournament", "create"},
		{"tournament", "end"},
		{"tournament", "list"},
		{"tournament", "leaderboard"},
		{"referral"},
		{"ledger", "credit"},
		{"ledger", "balance"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestTournamentCreateRequiresFlags(t *testing.T) {
	cmd, _, err := NewRootCommand().Find([]string{"tournament", "create"})
	require.NoError(t, err)

	assert.NotNil(t, cmd.Flags().Lookup("start"))
	assert.NotNil(t, cmd.Flags().Lookup("prizes"))
	assert.Error(t, cmd.ValidateRequiredFlags())
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, 20, pageSize(0, 20))
	assert.Equal(t, 20, pageSize(-3, 20))
	assert.Equal(t, 15, pageSize(15, 20))
	assert.Equal(t, service.MaxLeaderboardLimit, pageSize(2147483647, 20))
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	cfg := config.NewTestConfig()
	cfg.LogLevel = "debug"
	cfg.Environment = "production"
	configureLogging(cfg)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "nonsense"
	cfg.Environment = "development"
	configureLogging(cfg)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}
