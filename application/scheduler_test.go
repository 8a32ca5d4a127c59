package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func disableJobs(ops *Operations) {
	ops.config.ExpirySweepInterval = 0
	ops.config.BroadcastSweepInterval = 0
	ops.config.BonusReminderInterval = 0
	ops.config.CleanupInterval = 0
}

func TestScheduler_StartRunsJobImmediately(t *testing.T) {
	ops, uow := newTestOperations()
	disableJobs(ops)
	ops.config.CleanupInterval = time.Hour

	ran := make(chan struct{}, 1)
	uow.TournamentBroadcastRepo.On("DeleteClaimedBefore", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)

	scheduler, err := NewScheduler(ops, new(service.MockNotifier), ops.config, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, scheduler.Start(ctx))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup job did not run")
	}

	assert.NoError(t, scheduler.Shutdown())
}

func TestScheduler_NoJobsConfigured(t *testing.T) {
	ops, _ := newTestOperations()
	disableJobs(ops)

	scheduler, err := NewScheduler(ops, new(service.MockNotifier), ops.config, nil)
	require.NoError(t, err)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.NoError(t, scheduler.Shutdown())
}

func TestScheduler_RunExpirySweep_SurvivesErrors(t *testing.T) {
	ops, uow := newTestOperations()
	uow.TournamentRepo.On("ListExpired", mock.Anything, testNow).Return(nil, errors.New("db down"))

	scheduler, err := NewScheduler(ops, new(service.MockNotifier), ops.config, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { scheduler.RunExpirySweep(context.Background()) })
	uow.TournamentRepo.AssertExpectations(t)
}

func TestScheduler_RunBonusReminders(t *testing.T) {
	ops, uow := newTestOperations()
	notifier := new(service.MockNotifier)

	uow.AccountRepo.On("ListDueBonusReminders", mock.Anything, mock.Anything, bonusReminderBatch).
		Return([]*models.Account{{AccountID: 5}}, nil)
	uow.AccountRepo.On("MarkBonusReminded", mock.Anything, int64(5), testNow).Return(nil)
	notifier.On("Notify", mock.Anything, int64(5), BonusReminderMessage()).Return(nil)

	scheduler, err := NewScheduler(ops, notifier, ops.config, nil)
	require.NoError(t, err)

	scheduler.RunBonusReminders(context.Background())

	notifier.AssertExpectations(t)
	uow.AccountRepo.AssertExpectations(t)
}
