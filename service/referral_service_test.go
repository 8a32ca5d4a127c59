package service

import (
	"context"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type referralMocks struct {
	accounts       *MockAccountRepository
	tournaments    *MockTournamentRepository
	participations *MockParticipationRepository
	ledger         *MockLedgerService
	publisher      *MockEventPublisher
}

func newTestReferral(cfg *config.Config) (ReferralService, *referralMocks) {
	m := &referralMocks{
		accounts:       new(MockAccountRepository),
		tournaments:    new(MockTournamentRepository),
		participations: new(MockParticipationRepository),
		ledger:         new(MockLedgerService),
		publisher:      new(MockEventPublisher),
	}
	tournaments := NewTournamentService(m.tournaments, m.participations, m.publisher, cfg)
	return NewReferralService(m.accounts, tournaments, m.ledger, m.publisher, cfg), m
}

func TestReferralService_OnReferral(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	t.Run("credits referrer and scores active tournament", func(t *testing.T) {
		svc, m := newTestReferral(config.NewTestConfig())

		m.accounts.On("GetByID", ctx, int64(2)).Return(&models.Account{AccountID: 2, Username: "newbie"}, nil)
		m.accounts.On("GetByID", ctx, int64(1)).Return(&models.Account{AccountID: 1}, nil)
		m.accounts.On("SetReferrer", ctx, int64(2), int64(1)).Return(true, nil)
		m.ledger.On("Credit", ctx, int64(1), decimal.NewFromInt(2), models.TransactionTypeReferralReward, mock.Anything).Return(&models.Account{}, nil)
		m.ledger.On("IncrementReferrals", ctx, int64(1)).Return(4, nil)
		m.tournaments.On("GetActiveAt", ctx, now).Return(&models.Tournament{ID: 8, Name: "Cup"}, nil)
		m.participations.On("IncrementScore", ctx, int64(8), int64(1)).Return(3, nil)
		m.publisher.On("Publish", mock.MatchedBy(func(e events.ReferralRegisteredEvent) bool {
			return e.ReferrerID == 1 && e.NewAccountTag == "@newbie" &&
				e.TournamentID != nil && *e.TournamentID == 8 && e.ReferralCount == 4
		})).Return()

		result, err := svc.OnReferral(ctx, 2, 1, now)

		require.NoError(t, err)
		assert.Equal(t, 4, result.ReferralCount)
		assert.Equal(t, 3, result.Score)
		require.NotNil(t, result.Tournament)
		assert.Equal(t, int64(8), result.Tournament.ID)
		m.ledger.AssertExpectations(t)
		m.participations.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("no active tournament only credits", func(t *testing.T) {
		svc, m := newTestReferral(config.NewTestConfig())

		m.accounts.On("GetByID", ctx, int64(2)).Return(&models.Account{AccountID: 2}, nil)
		m.accounts.On("GetByID", ctx, int64(1)).Return(&models.Account{AccountID: 1}, nil)
		m.accounts.On("SetReferrer", ctx, int64(2), int64(1)).Return(true, nil)
		m.ledger.On("Credit", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(&models.Account{}, nil)
		m.ledger.On("IncrementReferrals", ctx, int64(1)).Return(1, nil)
		m.tournaments.On("GetActiveAt", ctx, now).Return(nil, nil)
		m.publisher.On("Publish", mock.MatchedBy(func(e events.ReferralRegisteredEvent) bool {
			return e.TournamentID == nil && e.NewAccountTag == "2"
		})).Return()

		result, err := svc.OnReferral(ctx, 2, 1, now)

		require.NoError(t, err)
		assert.Nil(t, result.Tournament)
		m.participations.AssertNotCalled(t, "IncrementScore", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zero reward skips credit", func(t *testing.T) {
		cfg := config.NewTestConfig()
		cfg.ReferralReward = decimal.Zero
		svc, m := newTestReferral(cfg)

		m.accounts.On("GetByID", ctx, mock.Anything).Return(&models.Account{}, nil)
		m.accounts.On("SetReferrer", ctx, int64(2), int64(1)).Return(true, nil)
		m.ledger.On("IncrementReferrals", ctx, int64(1)).Return(1, nil)
		m.tournaments.On("GetActiveAt", ctx, now).Return(nil, nil)
		m.publisher.On("Publish", mock.Anything).Return()

		_, err := svc.OnReferral(ctx, 2, 1, now)

		require.NoError(t, err)
		m.ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repeat referral", func(t *testing.T) {
		svc, m := newTestReferral(config.NewTestConfig())

		m.accounts.On("GetByID", ctx, mock.Anything).Return(&models.Account{}, nil)
		m.accounts.On("SetReferrer", ctx, int64(2), int64(1)).Return(false, nil)

		_, err := svc.OnReferral(ctx, 2, 1, now)

		assert.ErrorIs(t, err, ErrAlreadyReferred)
		m.ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("self referral", func(t *testing.T) {
		svc, m := newTestReferral(config.NewTestConfig())

		_, err := svc.OnReferral(ctx, 1, 1, now)

		assert.ErrorIs(t, err, ErrSelfReferral)
		m.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown referrer", func(t *testing.T) {
		svc, m := newTestReferral(config.NewTestConfig())

		m.accounts.On("GetByID", ctx, int64(2)).Return(&models.Account{AccountID: 2}, nil)
		m.accounts.On("GetByID", ctx, int64(1)).Return(nil, nil)

		_, err := svc.OnReferral(ctx, 2, 1, now)

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
