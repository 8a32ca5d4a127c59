package repository

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipationRepository_Scoring(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	tournamentRepo := NewTournamentRepository(testDB.DB)
	repo := NewParticipationRepository(testDB.DB)
	ctx := context.Background()

	tournament := testutil.CreateTestTournament("Cup", time.Now().Add(-time.Hour))
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	for _, id := range []int64{1, 2, 3} {
		testutil.InsertAccount(t, testDB.DB, id, "user", decimal.Zero)
	}

	t.Run("join creates zero score", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, tournament.ID, 1))
		require.NoError(t, repo.Upsert(ctx, tournament.ID, 1))

		p, err := repo.Get(ctx, tournament.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 0, p.Score)
	})

	t.Run("increment creates or adds", func(t *testing.T) {
		score, err := repo.IncrementScore(ctx, tournament.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		score, err = repo.IncrementScore(ctx, tournament.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		count, err := repo.Count(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("missing participation is nil", func(t *testing.T) {
		p, err := repo.Get(ctx, tournament.ID, 3)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestParticipationRepository_LeaderboardTieBreak(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	tournamentRepo := NewTournamentRepository(testDB.DB)
	repo := NewParticipationRepository(testDB.DB)
	ctx := context.Background()

	tournament := testutil.CreateTestTournament("Cup", time.Now().Add(-time.Hour))
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	for _, id := range []int64{10, 20, 30, 40} {
		testutil.InsertAccount(t, testDB.DB, id, "user", decimal.Zero)
	}

	// 30 reaches 2 points before 20; 10 and 40 tie on 1 point at the same instant
	for _, id := range []int64{20, 20, 30, 30, 10, 40} {
		_, err := repo.IncrementScore(ctx, tournament.ID, id)
		require.NoError(t, err)
	}
	base := time.Now().UTC().Add(-time.Minute)
	testutil.SetLastScoredAt(t, testDB.DB, tournament.ID, 30, base)
	testutil.SetLastScoredAt(t, testDB.DB, tournament.ID, 20, base.Add(time.Second))
	testutil.SetLastScoredAt(t, testDB.DB, tournament.ID, 10, base.Add(2*time.Second))
	testutil.SetLastScoredAt(t, testDB.DB, tournament.ID, 40, base.Add(2*time.Second))

	standings, err := repo.Leaderboard(ctx, tournament.ID, 10)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	var order []int64
	for i, s := range standings {
		assert.Equal(t, i+1, s.Position)
		order = append(order, s.AccountID)
	}
	assert.Equal(t, []int64{30, 20, 10, 40}, order)

	top, err := repo.Leaderboard(ctx, tournament.ID, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	// The result is sized by the rows returned, not by the requested limit
	all, err := repo.Leaderboard(ctx, tournament.ID, math.MaxInt32)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	above, err := repo.CountWithScoreAbove(ctx, tournament.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, above)
}

func TestParticipationRepository_ConcurrentIncrements(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	tournamentRepo := NewTournamentRepository(testDB.DB)
	repo := NewParticipationRepository(testDB.DB)
	ctx := context.Background()

	tournament := testutil.CreateTestTournament("Cup", time.Now().Add(-time.Hour))
	require.NoError(t, tournamentRepo.Create(ctx, tournament))
	testutil.InsertAccount(t, testDB.DB, 7, "busy", decimal.Zero)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementScore(ctx, tournament.ID, 7)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := repo.Get(ctx, tournament.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, workers, p.Score)
}
