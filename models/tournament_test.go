package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrizeSchedule_RewardFor(t *testing.T) {
	schedule := PrizeSchedule{
		1: decimal.NewFromInt(10),
		2: decimal.NewFromInt(5),
	}

	reward, ok := schedule.RewardFor(1)
	assert.True(t, ok)
	assert.True(t, reward.Equal(decimal.NewFromInt(10)))

	_, ok = schedule.RewardFor(3)
	assert.False(t, ok)
}

func TestTrophyAssets_AssetFor(t *testing.T) {
	tests := []struct {
		name     string
		assets   TrophyAssets
		rank     int
		expected string
	}{
		{"rank specific asset", TrophyAssets{"1": "gold", "default": "plain"}, 1, "gold"},
		{"falls back to default", TrophyAssets{"1": "gold", "default": "plain"}, 2, "plain"},
		{"empty rank asset falls back", TrophyAssets{"2": "", "default": "plain"}, 2, "plain"},
		{"no asset at all", TrophyAssets{"1": "gold"}, 3, ""},
		{"nil assets", nil, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.assets.AssetFor(tt.rank))
		})
	}
}

func TestTournament_Window(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tournament := &Tournament{
		StartTime: start,
		EndTime:   start.Add(48 * time.Hour),
		Status:    TournamentStatusActive,
	}

	assert.False(t, tournament.IsExpiredAt(start.Add(time.Hour)))
	assert.True(t, tournament.IsExpiredAt(tournament.EndTime))

	tournament.Status = TournamentStatusFinished
	assert.True(t, tournament.IsFinished())
	assert.False(t, tournament.IsExpiredAt(tournament.EndTime))
}

func TestAccount_CanClaimBonus(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	account := &Account{}
	assert.True(t, account.CanClaimBonus(now, 24*time.Hour))

	last := now.Add(-23 * time.Hour)
	account.LastBonusAt = &last
	assert.False(t, account.CanClaimBonus(now, 24*time.Hour))
	assert.Equal(t, now.Add(time.Hour), account.NextBonusAt(24*time.Hour))

	last = now.Add(-24 * time.Hour)
	assert.True(t, account.CanClaimBonus(now, 24*time.Hour))
}
