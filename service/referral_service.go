package service

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

// ReferralResult describes what a processed referral changed
type ReferralResult struct {
	NewAccountID  int64
	ReferrerID    int64
	Reward        decimal.Decimal
	ReferralCount int
	Tournament    *models.Tournament // nil when no tournament was running
	Score         int
}

// referralService implements the ReferralService interface
type referralService struct {
	accountRepo    AccountRepository
	tournaments    TournamentService
	ledger         LedgerService
	eventPublisher EventPublisher
	config         *config.Config
}

// NewReferralService creates a new referral service
func NewReferralService(accountRepo AccountRepository, tournaments TournamentService, ledger LedgerService, eventPublisher EventPublisher, cfg *config.Config) ReferralService {
	return &referralService{
		accountRepo:    accountRepo,
		tournaments:    tournaments,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		config:         cfg,
	}
}

// OnReferral credits the referrer for bringing in newAccountID and scores the
// referral in the tournament running at now. A new account can be referred once.
func (s *referralService) OnReferral(ctx context.Context, newAccountID, referrerID int64, now time.Time) (*ReferralResult, error) {
	if newAccountID == referrerID {
		return nil, ErrSelfReferral
	}

	newAccount, err := s.accountRepo.GetByID(ctx, newAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get new account: %w", err)
	}
	if newAccount == nil {
		return nil, fmt.Errorf("%w: new account %d", ErrAccountNotFound, newAccountID)
	}

	referrer, err := s.accountRepo.GetByID(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrer: %w", err)
	}
	if referrer == nil {
		return nil, fmt.Errorf("%w: referrer %d", ErrAccountNotFound, referrerID)
	}

	set, err := s.accountRepo.SetReferrer(ctx, newAccountID, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to record referrer: %w", err)
	}
	if !set {
		return nil, fmt.Errorf("%w: account %d", ErrAlreadyReferred, newAccountID)
	}

	result := &ReferralResult{
		NewAccountID: newAccountID,
		ReferrerID:   referrerID,
		Reward:       s.config.ReferralReward,
	}

	if s.config.ReferralReward.IsPositive() {
		metadata := map[string]any{"new_account_id": newAccountID}
		if _, err := s.ledger.Credit(ctx, referrerID, s.config.ReferralReward, models.TransactionTypeReferralReward, metadata); err != nil {
			return nil, fmt.Errorf("failed to credit referral reward: %w", err)
		}
	}

	result.ReferralCount, err = s.ledger.IncrementReferrals(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	tournament, err := s.tournaments.GetActiveAt(ctx, now)
	if err != nil {
		return nil, err
	}
	if tournament != nil {
		result.Tournament = tournament
		result.Score, err = s.tournaments.IncrementScore(ctx, tournament.ID, referrerID)
		if err != nil {
			return nil, err
		}
	}

	event := events.ReferralRegisteredEvent{
		NewAccountID:  newAccountID,
		NewAccountTag: accountTag(newAccount),
		ReferrerID:    referrerID,
		Reward:        result.Reward,
		ReferralCount: result.ReferralCount,
	}
	if tournament != nil {
		event.TournamentID = &tournament.ID
	}
	s.eventPublisher.Publish(event)

	return result, nil
}

// accountTag returns the most readable name available for an account
func accountTag(account *models.Account) string {
	if account.Username != "" {
		return "@" + account.Username
	}
	if account.DisplayName != "" {
		return account.DisplayName
	}
	return fmt.Sprintf("%d", account.AccountID)
}
