package application

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Scheduled job names, also used as the metric label
const (
	JobExpirySweep    = "expiry_sweep"
	JobBroadcastSweep = "broadcast_sweep"
	JobBonusReminder  = "bonus_reminder"
	JobCleanup        = "broadcast_cleanup"
)

// Scheduler runs the periodic tournament jobs for the lifetime of the process.
// A failed run is logged; the next interval is the retry.
type Scheduler struct {
	ops      *Operations
	notifier service.Notifier
	config   *config.Config
	metrics  *observability.MetricsProvider
	sched    gocron.Scheduler
}

// NewScheduler creates a scheduler with no jobs registered yet
func NewScheduler(ops *Operations, notifier service.Notifier, cfg *config.Config, metrics *observability.MetricsProvider) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		ops:      ops,
		notifier: notifier,
		config:   cfg,
		metrics:  metrics,
		sched:    sched,
	}, nil
}

// Start registers all jobs and starts the scheduler. Jobs stop running once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context)
	}{
		{JobExpirySweep, s.config.ExpirySweepInterval, s.RunExpirySweep},
		{JobBroadcastSweep, s.config.BroadcastSweepInterval, s.RunBroadcastSweep},
		{JobBonusReminder, s.config.BonusReminderInterval, s.RunBonusReminders},
		{JobCleanup, s.config.CleanupInterval, s.RunCleanup},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			log.WithField("job", job.name).Info("Scheduled job disabled")
			continue
		}

		run := job.run
		_, err := s.sched.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() {
				if ctx.Err() != nil {
					return
				}
				run(ctx)
			}),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}

		log.WithFields(log.Fields{
			"job":      job.name,
			"interval": job.interval,
		}).Info("Scheduled job registered")
	}

	s.sched.Start()
	log.Info("Scheduler started")
	return nil
}

// Shutdown stops the scheduler and waits for running jobs to return
func (s *Scheduler) Shutdown() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	log.Info("Scheduler stopped")
	return nil
}

// RunExpirySweep settles every tournament whose window has elapsed
func (s *Scheduler) RunExpirySweep(ctx context.Context) {
	s.metrics.RecordSweepRun(JobExpirySweep)

	summary, err := s.ops.SettleExpired(ctx)
	if err != nil {
		log.Errorf("Error running expiry sweep: %v", err)
		return
	}
	if summary.Total == 0 {
		return
	}

	log.WithFields(log.Fields{
		"total_tournaments": summary.Total,
		"successful":        summary.Successful,
		"failed":            summary.Failed,
	}).Info("Completed expiry sweep")
}

// RunBroadcastSweep sends start messages of tournaments that just began
func (s *Scheduler) RunBroadcastSweep(ctx context.Context) {
	s.metrics.RecordSweepRun(JobBroadcastSweep)

	count, err := s.ops.BroadcastStarts(ctx, s.notifier)
	if err != nil {
		log.Errorf("Error running broadcast sweep: %v", err)
		return
	}
	if count > 0 {
		log.WithField("tournaments", count).Info("Completed broadcast sweep")
	}
}

// RunBonusReminders reminds accounts that their daily bonus is available
func (s *Scheduler) RunBonusReminders(ctx context.Context) {
	s.metrics.RecordSweepRun(JobBonusReminder)

	sent, err := s.ops.SendBonusReminders(ctx, s.notifier)
	if err != nil {
		log.Errorf("Error sending bonus reminders: %v", err)
		return
	}
	if sent > 0 {
		log.WithField("reminders_sent", sent).Info("Completed bonus reminders")
	}
}

// RunCleanup prunes old start broadcast markers
func (s *Scheduler) RunCleanup(ctx context.Context) {
	s.metrics.RecordSweepRun(JobCleanup)

	pruned, err := s.ops.PruneBroadcastMarkers(ctx)
	if err != nil {
		log.Errorf("Error pruning broadcast markers: %v", err)
		return
	}
	if pruned > 0 {
		log.WithField("pruned", pruned).Info("Pruned broadcast markers")
	}
}
