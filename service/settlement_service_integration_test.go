package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/repository"
	"github.com/botmakerspc/Stars-magnat-bota/repository/testutil"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settleInUnitOfWork runs one settlement in its own transaction the way callers do
func settleInUnitOfWork(ctx context.Context, factory service.UnitOfWorkFactory, cfg *config.Config, tournamentID int64, now time.Time) (*service.SettlementResult, error) {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	ledger := service.NewLedgerService(uow.AccountRepository(), uow.BalanceHistoryRepository(), uow.TrophyRepository(), uow.EventBus(), cfg)
	ranking := service.NewRankingService(uow.ParticipationRepository())
	settlement := service.NewSettlementService(uow.TournamentRepository(), ranking, uow.TrophyRepository(), ledger, uow.EventBus())

	result, err := settlement.Settle(ctx, tournamentID, now)
	if err != nil {
		return nil, err
	}
	return result, uow.Commit()
}

func referInUnitOfWork(ctx context.Context, factory service.UnitOfWorkFactory, cfg *config.Config, newID, referrerID int64, now time.Time) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	ledger := service.NewLedgerService(uow.AccountRepository(), uow.BalanceHistoryRepository(), uow.TrophyRepository(), uow.EventBus(), cfg)
	tournaments := service.NewTournamentService(uow.TournamentRepository(), uow.ParticipationRepository(), uow.EventBus(), cfg)
	referrals := service.NewReferralService(uow.AccountRepository(), tournaments, ledger, uow.EventBus(), cfg)

	if _, err := referrals.OnReferral(ctx, newID, referrerID, now); err != nil {
		return err
	}
	return uow.Commit()
}

func TestTournamentLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	cfg := config.NewTestConfig()

	bus := events.NewBus()
	var settledEvents []events.TournamentSettledEvent
	var mu sync.Mutex
	bus.Subscribe(events.EventTypeTournamentSettled, func(ctx context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		settledEvents = append(settledEvents, e.(events.TournamentSettledEvent))
	})
	factory := repository.NewUnitOfWorkFactory(testDB.DB, bus)

	now := time.Now().UTC()
	tournament := testutil.CreateTestTournament("Referral Cup", now.Add(-time.Hour))
	require.NoError(t, repository.NewTournamentRepository(testDB.DB).Create(ctx, tournament))

	// A refers 2 users, B refers 1, C refers nobody
	const alice, bob, carol = 100, 200, 300
	for _, id := range []int64{alice, bob, carol, 1, 2, 3} {
		testutil.InsertAccount(t, testDB.DB, id, "user", decimal.Zero)
	}
	require.NoError(t, referInUnitOfWork(ctx, factory, cfg, 1, alice, now))
	require.NoError(t, referInUnitOfWork(ctx, factory, cfg, 2, alice, now))
	require.NoError(t, referInUnitOfWork(ctx, factory, cfg, 3, bob, now))

	t.Run("repeat referral is rejected without side effects", func(t *testing.T) {
		err := referInUnitOfWork(ctx, factory, cfg, 3, bob, now)
		assert.ErrorIs(t, err, service.ErrAlreadyReferred)

		account, err := repository.NewAccountRepository(testDB.DB).GetByID(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 1, account.ReferralCount)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(2)))
	})

	result, err := settleInUnitOfWork(ctx, factory, cfg, tournament.ID, now.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, result.Winners, 2)
	assert.Equal(t, int64(alice), result.Winners[0].AccountID)
	assert.Equal(t, int64(bob), result.Winners[1].AccountID)

	accounts := repository.NewAccountRepository(testDB.DB)
	a, err := accounts.GetByID(ctx, alice)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(14)), "2 referrals at 2 plus first prize 10, got %s", a.Balance)

	b, err := accounts.GetByID(ctx, bob)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(7)), "1 referral at 2 plus second prize 5, got %s", b.Balance)

	trophies, err := repository.NewTrophyRepository(testDB.DB).ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, trophies, 2)
	assert.Equal(t, "gold", trophies[0].AssetRef)
	assert.Equal(t, "participant", trophies[1].AssetRef)

	t.Run("second settlement changes nothing", func(t *testing.T) {
		again, err := settleInUnitOfWork(ctx, factory, cfg, tournament.ID, now.Add(26*time.Hour))
		require.NoError(t, err)
		assert.True(t, again.AlreadySettled)

		a, err := accounts.GetByID(ctx, alice)
		require.NoError(t, err)
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(14)))
	})

	bus.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, settledEvents, 1)
}

func TestConcurrentSettlement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	cfg := config.NewTestConfig()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	now := time.Now().UTC()
	tournament := testutil.CreateTestTournament("Race Cup", now.Add(-48*time.Hour))
	require.NoError(t, repository.NewTournamentRepository(testDB.DB).Create(ctx, tournament))

	testutil.InsertAccount(t, testDB.DB, 1, "winner", decimal.Zero)
	_, err := repository.NewParticipationRepository(testDB.DB).IncrementScore(ctx, tournament.ID, 1)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]*service.SettlementResult, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = settleInUnitOfWork(ctx, factory, cfg, tournament.ID, now)
		}(i)
	}
	wg.Wait()

	paid := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		if !results[i].AlreadySettled {
			paid++
		}
	}
	assert.Equal(t, 1, paid, "exactly one settlement pays out")

	account, err := repository.NewAccountRepository(testDB.DB).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(10)), "got %s", account.Balance)

	history, err := repository.NewBalanceHistoryRepository(testDB.DB).GetByAccount(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypeTournamentPrize, history[0].TransactionType)
}

func TestConcurrentReferrals_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	cfg := config.NewTestConfig()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	now := time.Now().UTC()
	tournament := testutil.CreateTestTournament("Rush Cup", now.Add(-time.Hour))
	require.NoError(t, repository.NewTournamentRepository(testDB.DB).Create(ctx, tournament))

	const referrer = 500
	const newcomers = 12
	testutil.InsertAccount(t, testDB.DB, referrer, "host", decimal.Zero)
	for i := int64(1); i <= newcomers; i++ {
		testutil.InsertAccount(t, testDB.DB, 1000+i, "guest", decimal.Zero)
	}

	var wg sync.WaitGroup
	errs := make([]error, newcomers)
	for i := 0; i < newcomers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = referInUnitOfWork(ctx, factory, cfg, 1001+int64(i), referrer, now)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	account, err := repository.NewAccountRepository(testDB.DB).GetByID(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, newcomers, account.ReferralCount)
	expected := cfg.ReferralReward.Mul(decimal.NewFromInt(newcomers))
	assert.True(t, account.Balance.Equal(expected), "got %s", account.Balance)

	participation, err := repository.NewParticipationRepository(testDB.DB).Get(ctx, tournament.ID, referrer)
	require.NoError(t, err)
	require.NotNil(t, participation)
	assert.Equal(t, newcomers, participation.Score)
}
