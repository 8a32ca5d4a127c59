package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// LeaderboardSize is how many standings the tournament view shows
	LeaderboardSize = 10

	// bonusReminderBatch caps how many reminders one sweep sends
	bonusReminderBatch = 100
)

// TournamentView is what a participant sees when opening the active tournament
type TournamentView struct {
	Tournament *models.Tournament
	Rank       int
	Score        int
	Participants int
	Leaders      []*models.Standing
}

// ReferralRequest describes a new account arriving through a referral link
type ReferralRequest struct {
	NewAccountID int64  `json:"new_account_id"`
	DisplayName  string `json:"display_name"`
	Username     string `json:"username"`
	ReferrerID   int64  `json:"referrer_id"`
}

// SweepSummary counts what one expiry sweep did
type SweepSummary struct {
	Total      int
	Successful int
	Failed     int
}

// Operations runs every use case in its own unit of work.
// Transport adapters (bot, api, cmd, consumers) call these instead of services.
type Operations struct {
	uowFactory service.UnitOfWorkFactory
	config     *config.Config
	metrics    *observability.MetricsProvider
	now        func() time.Time
}

// NewOperations creates the application operations
func NewOperations(uowFactory service.UnitOfWorkFactory, cfg *config.Config, metrics *observability.MetricsProvider) *Operations {
	return &Operations{
		uowFactory: uowFactory,
		config:     cfg,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// services bundles the domain services bound to one unit of work
type services struct {
	uow         service.UnitOfWork
	ledger      service.LedgerService
	tournaments service.TournamentService
	ranking     service.RankingService
	settlement  service.SettlementService
	referrals   service.ReferralService
}

func (o *Operations) servicesFor(uow service.UnitOfWork) *services {
	ledger := service.NewLedgerService(
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.TrophyRepository(),
		uow.EventBus(),
		o.config,
	)
	tournaments := service.NewTournamentService(
		uow.TournamentRepository(),
		uow.ParticipationRepository(),
		uow.EventBus(),
		o.config,
	)
	ranking := service.NewRankingService(uow.ParticipationRepository())
	return &services{
		uow:         uow,
		ledger:      ledger,
		tournaments: tournaments,
		ranking:     ranking,
		settlement: service.NewSettlementService(
			uow.TournamentRepository(),
			ranking,
			uow.TrophyRepository(),
			ledger,
			uow.EventBus(),
		),
		referrals: service.NewReferralService(
			uow.AccountRepository(),
			tournaments,
			ledger,
			uow.EventBus(),
			o.config,
		),
	}
}

// inTransaction runs fn in a fresh unit of work and commits when it succeeds
func (o *Operations) inTransaction(ctx context.Context, fn func(s *services) error) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(o.servicesFor(uow)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// readOnly runs fn in a unit of work that is always rolled back
func (o *Operations) readOnly(ctx context.Context, fn func(s *services) error) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(o.servicesFor(uow))
}

// EnsureAccount registers the account on first interaction
func (o *Operations) EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error) {
	var account *models.Account
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		account, err = s.ledger.EnsureAccount(ctx, accountID, displayName, username)
		return err
	})
	return account, err
}

// GetAccount returns the account or service.ErrAccountNotFound
func (o *Operations) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account *models.Account
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		account, err = s.ledger.GetAccount(ctx, accountID)
		return err
	})
	return account, err
}

// GetBalance returns the balance, zero for unknown accounts
func (o *Operations) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		balance, err = s.ledger.GetBalance(ctx, accountID)
		return err
	})
	return balance, err
}

// ClaimDailyBonus credits the daily bonus if the cooldown has elapsed
func (o *Operations) ClaimDailyBonus(ctx context.Context, accountID int64) (*service.BonusClaim, error) {
	var claim *service.BonusClaim
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		claim, err = s.ledger.ClaimDailyBonus(ctx, accountID, o.now())
		return err
	})
	return claim, err
}

// Withdraw debits a withdrawal request from the account
func (o *Operations) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Account, error) {
	var account *models.Account
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		account, err = s.ledger.Withdraw(ctx, accountID, amount)
		return err
	})
	return account, err
}

// AdjustBalance applies a signed operator correction to the account
func (o *Operations) AdjustBalance(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*models.Account, error) {
	var account *models.Account
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		metadata := map[string]any{}
		if reason != "" {
			metadata["reason"] = reason
		}
		account, err = s.ledger.Credit(ctx, accountID, amount, models.TransactionTypeAdminAdjustment, metadata)
		return err
	})
	return account, err
}

// ListTrophies returns the account's trophies, newest first
func (o *Operations) ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error) {
	var trophies []*models.Trophy
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		trophies, err = s.ledger.ListTrophies(ctx, accountID)
		return err
	})
	return trophies, err
}

// TopAccounts returns the accounts with the highest balances
func (o *Operations) TopAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		accounts, err = s.ledger.TopAccounts(ctx, limit)
		return err
	})
	return accounts, err
}

// CreateTournament validates and stores a new tournament
func (o *Operations) CreateTournament(ctx context.Context, params service.CreateTournamentParams) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		tournament, err = s.tournaments.Create(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tournament_id": tournament.ID,
		"name":          tournament.Name,
		"start_time":    tournament.StartTime,
		"end_time":      tournament.EndTime,
	}).Info("Tournament created")
	return tournament, nil
}

// ActiveTournament returns the tournament running now, or nil
func (o *Operations) ActiveTournament(ctx context.Context) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		tournament, err = s.tournaments.GetActiveAt(ctx, o.now())
		return err
	})
	return tournament, err
}

// ActiveTournaments returns every tournament whose window contains now
func (o *Operations) ActiveTournaments(ctx context.Context) ([]*models.Tournament, error) {
	var tournaments []*models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		tournaments, err = s.tournaments.ListActiveWindowed(ctx, o.now())
		return err
	})
	return tournaments, err
}

// ListTournaments returns the latest tournaments regardless of status
func (o *Operations) ListTournaments(ctx context.Context, limit int) ([]*models.Tournament, error) {
	var tournaments []*models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		tournaments, err = s.tournaments.ListRecent(ctx, limit)
		return err
	})
	return tournaments, err
}

// TournamentView joins the account to the active tournament and returns its
// standing with the top of the leaderboard. Returns nil when nothing is running.
func (o *Operations) TournamentView(ctx context.Context, accountID int64) (*TournamentView, error) {
	var view *TournamentView
	err := o.inTransaction(ctx, func(s *services) error {
		tournament, err := s.tournaments.GetActiveAt(ctx, o.now())
		if err != nil || tournament == nil {
			return err
		}

		if err := s.tournaments.Join(ctx, tournament.ID, accountID); err != nil {
			return err
		}

		rank, score, err := s.ranking.RankOf(ctx, tournament.ID, accountID)
		if err != nil {
			return err
		}

		leaders, err := s.ranking.Leaderboard(ctx, tournament.ID, LeaderboardSize)
		if err != nil {
			return err
		}

		participants, err := s.ranking.Participants(ctx, tournament.ID)
		if err != nil {
			return err
		}

		view = &TournamentView{
			Tournament:   tournament,
			Rank:         rank,
			Score:        score,
			Participants: participants,
			Leaders:      leaders,
		}
		return nil
	})
	return view, err
}

// GetTournament returns the tournament or service.ErrTournamentNotFound
func (o *Operations) GetTournament(ctx context.Context, tournamentID int64) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		tournament, err = s.tournaments.GetByID(ctx, tournamentID)
		return err
	})
	return tournament, err
}

// Leaderboard returns the top standings of a tournament
func (o *Operations) Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error) {
	var standings []*models.Standing
	err := o.readOnly(ctx, func(s *services) error {
		if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
			return err
		}
		var err error
		standings, err = s.ranking.Leaderboard(ctx, tournamentID, limit)
		return err
	})
	return standings, err
}

// RankOf returns the account's competition rank and score in a tournament
func (o *Operations) RankOf(ctx context.Context, tournamentID, accountID int64) (int, int, error) {
	var rank, score int
	err := o.readOnly(ctx, func(s *services) error {
		if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
			return err
		}
		var err error
		rank, score, err = s.ranking.RankOf(ctx, tournamentID, accountID)
		return err
	})
	return rank, score, err
}

// EndTournament settles the active tournament with the given name on operator request
func (o *Operations) EndTournament(ctx context.Context, name string) (*service.SettlementResult, error) {
	return o.settle(ctx, observability.TriggerManual, func(s *services, now time.Time) (*service.SettlementResult, error) {
		return s.settlement.SettleByName(ctx, name, now)
	})
}

// SettleTournament settles one tournament by id
func (o *Operations) SettleTournament(ctx context.Context, tournamentID int64, trigger string) (*service.SettlementResult, error) {
	return o.settle(ctx, trigger, func(s *services, now time.Time) (*service.SettlementResult, error) {
		return s.settlement.Settle(ctx, tournamentID, now)
	})
}

func (o *Operations) settle(ctx context.Context, trigger string, fn func(s *services, now time.Time) (*service.SettlementResult, error)) (*service.SettlementResult, error) {
	started := time.Now()

	var result *service.SettlementResult
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		result, err = fn(s, o.now())
		return err
	})
	if err != nil {
		o.metrics.RecordSettlement(trigger, observability.OutcomeError, 0, time.Since(started))
		return nil, err
	}

	if result.AlreadySettled {
		o.metrics.RecordSettlement(trigger, observability.OutcomeAlreadySettled, 0, time.Since(started))
		log.WithFields(log.Fields{
			"tournament_id": result.Tournament.ID,
			"trigger":       trigger,
		}).Info("Tournament already settled")
		return result, nil
	}

	o.metrics.RecordSettlement(trigger, observability.OutcomeSuccess, len(result.Winners), time.Since(started))
	log.WithFields(log.Fields{
		"tournament_id": result.Tournament.ID,
		"name":          result.Tournament.Name,
		"winners":       len(result.Winners),
		"trigger":       trigger,
		"ended_early":   result.EndedEarly,
	}).Info("Tournament settled")
	return result, nil
}

// SettleExpired settles every active tournament whose window has elapsed.
// Each tournament gets its own unit of work so one failure does not block the rest.
func (o *Operations) SettleExpired(ctx context.Context) (SweepSummary, error) {
	var expired []*models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		expired, err = s.tournaments.ListExpired(ctx, o.now())
		return err
	})
	if err != nil {
		return SweepSummary{}, err
	}

	summary := SweepSummary{Total: len(expired)}
	for _, tournament := range expired {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := o.SettleTournament(ctx, tournament.ID, observability.TriggerSweep); err != nil {
			log.Errorf("Error settling expired tournament %d: %v", tournament.ID, err)
			summary.Failed++
			continue
		}
		summary.Successful++
	}

	return summary, nil
}

// ProcessReferral registers the new account and credits its referrer
func (o *Operations) ProcessReferral(ctx context.Context, req ReferralRequest) (*service.ReferralResult, error) {
	var result *service.ReferralResult
	err := o.inTransaction(ctx, func(s *services) error {
		if _, err := s.ledger.EnsureAccount(ctx, req.NewAccountID, req.DisplayName, req.Username); err != nil {
			return err
		}
		var err error
		result, err = s.referrals.OnReferral(ctx, req.NewAccountID, req.ReferrerID, o.now())
		return err
	})

	switch {
	case err == nil:
		o.metrics.RecordReferral(observability.OutcomeSuccess)
	case errors.Is(err, service.ErrAlreadyReferred):
		o.metrics.RecordReferral(observability.OutcomeDuplicate)
	default:
		o.metrics.RecordReferral(observability.OutcomeError)
	}
	return result, err
}

// BroadcastStarts sends the start message of every tournament that began within
// the broadcast window. Each tournament is broadcast by whichever sweep claims it first.
func (o *Operations) BroadcastStarts(ctx context.Context, notifier service.Notifier) (int, error) {
	now := o.now()

	var started []*models.Tournament
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		started, err = s.uow.TournamentRepository().ListStartedBetween(ctx, now.Add(-o.config.BroadcastWindow), now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list started tournaments: %w", err)
	}

	broadcasts := 0
	for _, tournament := range started {
		if !tournament.HasStartMessage() {
			continue
		}

		claimed, err := o.claimBroadcast(ctx, tournament.ID, now)
		if err != nil {
			log.Errorf("Error claiming start broadcast for tournament %d: %v", tournament.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		delivered, err := o.broadcast(ctx, notifier, *tournament.StartMessage)
		if err != nil {
			log.Errorf("Error broadcasting start of tournament %d: %v", tournament.ID, err)
		}

		err = o.inTransaction(ctx, func(s *services) error {
			return s.uow.TournamentBroadcastRepository().SetRecipients(ctx, tournament.ID, delivered)
		})
		if err != nil {
			log.Errorf("Error recording broadcast recipients for tournament %d: %v", tournament.ID, err)
		}

		o.metrics.RecordBroadcast(delivered)
		log.WithFields(log.Fields{
			"tournament_id": tournament.ID,
			"name":          tournament.Name,
			"recipients":    delivered,
		}).Info("Sent tournament start broadcast")
		broadcasts++
	}

	return broadcasts, nil
}

func (o *Operations) claimBroadcast(ctx context.Context, tournamentID int64, now time.Time) (bool, error) {
	var claimed bool
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		claimed, err = s.uow.TournamentBroadcastRepository().Claim(ctx, tournamentID, now)
		return err
	})
	return claimed, err
}

// broadcast delivers message to every account, pausing between recipients
func (o *Operations) broadcast(ctx context.Context, notifier service.Notifier, message string) (int, error) {
	var accountIDs []int64
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		accountIDs, err = s.uow.AccountRepository().ListIDs(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	delivered := 0
	for i, accountID := range accountIDs {
		if i > 0 && o.config.BroadcastSendDelay > 0 {
			select {
			case <-ctx.Done():
				return delivered, ctx.Err()
			case <-time.After(o.config.BroadcastSendDelay):
			}
		}

		if err := notifier.Notify(ctx, accountID, message); err != nil {
			log.WithFields(log.Fields{
				"account_id": accountID,
				"error":      err,
			}).Debug("Failed to deliver broadcast")
			o.metrics.RecordNotification("broadcast", observability.OutcomeError)
			continue
		}
		o.metrics.RecordNotification("broadcast", observability.OutcomeSuccess)
		delivered++
	}

	return delivered, nil
}

// SendBonusReminders notifies accounts whose daily bonus became available again
func (o *Operations) SendBonusReminders(ctx context.Context, notifier service.Notifier) (int, error) {
	now := o.now()

	var due []*models.Account
	err := o.readOnly(ctx, func(s *services) error {
		var err error
		due, err = s.uow.AccountRepository().ListDueBonusReminders(ctx, now.Add(-service.BonusCooldown), bonusReminderBatch)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list due bonus reminders: %w", err)
	}

	sent := 0
	for _, account := range due {
		if err := notifier.Notify(ctx, account.AccountID, BonusReminderMessage()); err != nil {
			log.WithFields(log.Fields{
				"account_id": account.AccountID,
				"error":      err,
			}).Debug("Failed to deliver bonus reminder")
			o.metrics.RecordNotification("bonus_reminder", observability.OutcomeError)
		} else {
			o.metrics.RecordNotification("bonus_reminder", observability.OutcomeSuccess)
			sent++
		}

		// Undeliverable accounts are marked too so they are not retried every hour
		err := o.inTransaction(ctx, func(s *services) error {
			return s.uow.AccountRepository().MarkBonusReminded(ctx, account.AccountID, now)
		})
		if err != nil {
			log.Errorf("Error marking bonus reminder for account %d: %v", account.AccountID, err)
		}
	}

	return sent, nil
}

// PruneBroadcastMarkers removes start broadcast markers older than the configured TTL
func (o *Operations) PruneBroadcastMarkers(ctx context.Context) (int64, error) {
	var pruned int64
	err := o.inTransaction(ctx, func(s *services) error {
		var err error
		pruned, err = s.uow.TournamentBroadcastRepository().DeleteClaimedBefore(ctx, o.now().Add(-o.config.BroadcastMarkerTTL))
		return err
	})
	return pruned, err
}
