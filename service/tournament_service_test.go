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

func TestCreateTournamentParams_Validate(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		params     CreateTournamentParams
		wantErr    bool
		wantPlaces int
	}{
		{
			name: "places derived from schedule",
			params: CreateTournamentParams{
				Name: "  Summer  ", StartTime: start, DurationDays: 7,
				PrizeSchedule: models.PrizeSchedule{1: decimal.NewFromInt(10), 3: decimal.NewFromInt(1)},
			},
			wantPlaces: 3,
		},
		{
			name: "explicit places wider than schedule",
			params: CreateTournamentParams{
				Name: "Wide", StartTime: start, DurationDays: 1, PrizePlaces: 5,
				PrizeSchedule: models.PrizeSchedule{1: decimal.NewFromInt(10)},
			},
			wantPlaces: 5,
		},
		{
			name:    "empty name",
			params:  CreateTournamentParams{Name: " ", StartTime: start, DurationDays: 1, PrizePlaces: 1},
			wantErr: true,
		},
		{
			name:    "zero duration",
			params:  CreateTournamentParams{Name: "x", StartTime: start, PrizePlaces: 1},
			wantErr: true,
		},
		{
			name:    "no places and no schedule",
			params:  CreateTournamentParams{Name: "x", StartTime: start, DurationDays: 1},
			wantErr: true,
		},
		{
			name: "rank outside places",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1, PrizePlaces: 1,
				PrizeSchedule: models.PrizeSchedule{2: decimal.NewFromInt(1)},
			},
			wantErr: true,
		},
		{
			name:    "prize places above cap",
			params:  CreateTournamentParams{Name: "x", StartTime: start, DurationDays: 1, PrizePlaces: 2147483647},
			wantErr: true,
		},
		{
			name: "schedule rank above cap",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1,
				PrizeSchedule: models.PrizeSchedule{MaxPrizePlaces + 1: decimal.NewFromInt(1)},
			},
			wantErr: true,
		},
		{
			name: "trophy key not a rank",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1, PrizePlaces: 1,
				TrophyAssets: models.TrophyAssets{"winner": "gold"},
			},
			wantErr: true,
		},
		{
			name: "trophy rank outside places",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1, PrizePlaces: 2,
				TrophyAssets: models.TrophyAssets{"3": "bronze"},
			},
			wantErr: true,
		},
		{
			name: "duplicate trophy rank",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1, PrizePlaces: 2,
				TrophyAssets: models.TrophyAssets{"1": "gold", "01": "other"},
			},
			wantErr: true,
		},
		{
			name: "negative prize",
			params: CreateTournamentParams{
				Name: "x", StartTime: start, DurationDays: 1,
				PrizeSchedule: models.PrizeSchedule{1: decimal.NewFromInt(-1)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTournament)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlaces, tt.params.PrizePlaces)
		})
	}
}

func TestCreateTournamentParams_NormalizesTrophyKeys(t *testing.T) {
	params := CreateTournamentParams{
		Name:         "Cup",
		StartTime:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		DurationDays: 1,
		PrizePlaces:  3,
		TrophyAssets: models.TrophyAssets{"01": "gold", " 2": "silver", "default": "medal"},
	}

	require.NoError(t, params.Validate())
	assert.Equal(t, models.TrophyAssets{"1": "gold", "2": "silver", "default": "medal"}, params.TrophyAssets)
	assert.Equal(t, "gold", params.TrophyAssets.AssetFor(1))
	assert.Equal(t, "medal", params.TrophyAssets.AssetFor(3))
}

func TestCreateTournamentParams_EndTime(t *testing.T) {
	start := time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC)
	p := CreateTournamentParams{StartTime: start, DurationDays: 3}
	assert.Equal(t, start.Add(72*time.Hour), p.EndTime())
}

func TestTournamentService_Create(t *testing.T) {
	ctx := context.Background()
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, moscow)

	params := CreateTournamentParams{
		Name:          "June Cup",
		StartTime:     start,
		DurationDays:  2,
		PrizeSchedule: models.PrizeSchedule{1: decimal.NewFromInt(10), 2: decimal.NewFromInt(5)},
		StartMessage:  "  Go!  ",
	}

	t.Run("stores window in UTC and publishes", func(t *testing.T) {
		tournamentRepo := new(MockTournamentRepository)
		publisher := new(MockEventPublisher)
		svc := NewTournamentService(tournamentRepo, new(MockParticipationRepository), publisher, config.NewTestConfig())

		tournamentRepo.On("LockForCreate", ctx).Return(nil)
		tournamentRepo.On("ListOverlapping", ctx, start.UTC(), start.UTC().Add(48*time.Hour)).Return([]*models.Tournament{}, nil)
		tournamentRepo.On("Create", ctx, mock.MatchedBy(func(tn *models.Tournament) bool {
			return tn.Name == "June Cup" &&
				tn.StartTime.Equal(start) && tn.StartTime.Location() == time.UTC &&
				tn.PrizePlaces == 2 &&
				tn.StartMessage != nil && *tn.StartMessage == "Go!" &&
				tn.TrophyAssets != nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Tournament).ID = 17
		}).Return(nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.TournamentCreatedEvent) bool {
			return e.TournamentID == 17
		})).Return()

		tournament, err := svc.Create(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, int64(17), tournament.ID)
		assert.Equal(t, models.TournamentStatusActive, tournament.Status)
		tournamentRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("rejects overlapping window", func(t *testing.T) {
		tournamentRepo := new(MockTournamentRepository)
		svc := NewTournamentService(tournamentRepo, new(MockParticipationRepository), new(MockEventPublisher), config.NewTestConfig())

		tournamentRepo.On("LockForCreate", ctx).Return(nil)
		tournamentRepo.On("ListOverlapping", ctx, mock.Anything, mock.Anything).Return([]*models.Tournament{
			{ID: 3, Name: "May Cup", EndTime: start.Add(time.Hour)},
		}, nil)

		_, err := svc.Create(ctx, params)

		assert.ErrorIs(t, err, ErrTournamentOverlap)
		tournamentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("overlap allowed by config", func(t *testing.T) {
		cfg := config.NewTestConfig()
		cfg.AllowOverlappingWindow = true

		tournamentRepo := new(MockTournamentRepository)
		publisher := new(MockEventPublisher)
		svc := NewTournamentService(tournamentRepo, new(MockParticipationRepository), publisher, cfg)

		tournamentRepo.On("Create", ctx, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything).Return()

		_, err := svc.Create(ctx, params)

		require.NoError(t, err)
		tournamentRepo.AssertNotCalled(t, "ListOverlapping", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTournamentService_Lookups(t *testing.T) {
	ctx := context.Background()
	tournamentRepo := new(MockTournamentRepository)
	participationRepo := new(MockParticipationRepository)
	svc := NewTournamentService(tournamentRepo, participationRepo, new(MockEventPublisher), config.NewTestConfig())

	tournamentRepo.On("GetByID", ctx, int64(1)).Return(&models.Tournament{ID: 1}, nil)
	tournamentRepo.On("GetByID", ctx, int64(2)).Return(nil, nil)
	tournamentRepo.On("GetActiveByName", ctx, "Cup").Return(nil, nil)
	participationRepo.On("Upsert", ctx, int64(1), int64(50)).Return(nil)

	_, err := svc.GetByID(ctx, 2)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = svc.GetActiveByName(ctx, " Cup ")
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	require.NoError(t, svc.Join(ctx, 1, 50))
	assert.ErrorIs(t, svc.Join(ctx, 2, 50), ErrTournamentNotFound)

	participationRepo.AssertExpectations(t)
}
