package repository

import (
	"context"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrophyRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	tournamentRepo := NewTournamentRepository(testDB.DB)
	repo := NewTrophyRepository(testDB.DB)
	ctx := context.Background()

	tournament := testutil.CreateTestTournament("Cup", time.Now().Add(-48*time.Hour))
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	first := &models.Trophy{
		AccountID:      1,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		Rank:           1,
		AssetRef:       "gold",
		Reward:         decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.AwardedAt.IsZero())

	unpaid := &models.Trophy{
		AccountID:      2,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		Rank:           2,
	}
	require.NoError(t, repo.Create(ctx, unpaid))

	t.Run("duplicate trophy is rejected", func(t *testing.T) {
		dup := *first
		dup.ID = 0
		assert.Error(t, repo.Create(ctx, &dup))
	})

	t.Run("list by tournament", func(t *testing.T) {
		trophies, err := repo.ListByTournament(ctx, tournament.ID)
		require.NoError(t, err)
		require.Len(t, trophies, 2)
		assert.Equal(t, 1, trophies[0].Rank)
		assert.True(t, trophies[0].Reward.Valid)
		assert.True(t, trophies[0].Reward.Decimal.Equal(decimal.NewFromInt(10)))
		assert.False(t, trophies[1].Reward.Valid, "rank without a prize keeps a NULL reward")
	})

	t.Run("list by account", func(t *testing.T) {
		trophies, err := repo.ListByAccount(ctx, 1)
		require.NoError(t, err)
		require.Len(t, trophies, 1)
		assert.Equal(t, "gold", trophies[0].AssetRef)

		none, err := repo.ListByAccount(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestTournamentBroadcastRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	tournamentRepo := NewTournamentRepository(testDB.DB)
	repo := NewTournamentBroadcastRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC()
	tournament := testutil.CreateTestTournament("Cup", now)
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	claimed, err := repo.Claim(ctx, tournament.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.Claim(ctx, tournament.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed, "a tournament is broadcast once")

	require.NoError(t, repo.SetRecipients(ctx, tournament.ID, 12))

	deleted, err := repo.DeleteClaimedBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = repo.DeleteClaimedBefore(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
