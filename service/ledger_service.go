package service

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of decimal places balances are stored with
	AmountScale = 2

	// BonusCooldown is the minimum time between two daily bonus claims
	BonusCooldown = 24 * time.Hour

	// MaxTopAccounts bounds a single balance ranking read
	MaxTopAccounts = 100
)

// BonusClaim describes a successful daily bonus claim
type BonusClaim struct {
	Amount      decimal.Decimal
	Account     *models.Account
	NextClaimAt time.Time
}

// ledgerService implements the LedgerService interface
type ledgerService struct {
	accountRepo    AccountRepository
	historyRepo    BalanceHistoryRepository
	trophyRepo     TrophyRepository
	eventPublisher EventPublisher
	config         *config.Config
}

// NewLedgerService creates a new ledger service
func NewLedgerService(accountRepo AccountRepository, historyRepo BalanceHistoryRepository, trophyRepo TrophyRepository, eventPublisher EventPublisher, cfg *config.Config) LedgerService {
	return &ledgerService{
		accountRepo:    accountRepo,
		historyRepo:    historyRepo,
		trophyRepo:     trophyRepo,
		eventPublisher: eventPublisher,
		config:         cfg,
	}
}

// EnsureAccount creates the account on first interaction and refreshes its names otherwise
func (s *ledgerService) EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error) {
	account, _, err := s.accountRepo.Upsert(ctx, accountID, displayName, username)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account %d: %w", accountID, err)
	}
	return account, nil
}

// GetAccount returns the account or ErrAccountNotFound
func (s *ledgerService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}
	return account, nil
}

// GetBalance returns the stored balance; unknown accounts have a zero balance
func (s *ledgerService) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Balance, nil
}

// Credit applies a signed amount to the balance. No balance check is made.
func (s *ledgerService) Credit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	return s.apply(ctx, accountID, amount, txType, metadata)
}

// Debit subtracts a signed amount from the balance. No balance check is made.
func (s *ledgerService) Debit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	return s.apply(ctx, accountID, amount.Neg(), txType, metadata)
}

// TryDebit subtracts amount only if the locked balance covers it
func (s *ledgerService) TryDebit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}

	if account.Balance.LessThan(amount.Round(AmountScale)) {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, account.Balance.StringFixed(AmountScale), amount.StringFixed(AmountScale))
	}

	return s.apply(ctx, accountID, amount.Neg(), txType, metadata)
}

// IncrementReferrals adds one to the referral count
func (s *ledgerService) IncrementReferrals(ctx context.Context, accountID int64) (int, error) {
	count, err := s.accountRepo.IncrementReferrals(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment referrals: %w", err)
	}
	return count, nil
}

// ClaimDailyBonus credits the configured daily bonus at most once per BonusCooldown
func (s *ledgerService) ClaimDailyBonus(ctx context.Context, accountID int64, now time.Time) (*BonusClaim, error) {
	account, err := s.accountRepo.GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}

	if !account.CanClaimBonus(now, BonusCooldown) {
		return nil, &BonusNotReadyError{Remaining: account.NextBonusAt(BonusCooldown).Sub(now)}
	}

	amount := s.config.DailyBonusAmount
	updated, err := s.apply(ctx, accountID, amount, models.TransactionTypeDailyBonus, nil)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.SetLastBonus(ctx, accountID, now); err != nil {
		return nil, fmt.Errorf("failed to store bonus time: %w", err)
	}
	updated.LastBonusAt = &now

	return &BonusClaim{
		Amount:      amount,
		Account:     updated,
		NextClaimAt: now.Add(BonusCooldown),
	}, nil
}

// Withdraw debits a withdrawal of at least the configured minimum
func (s *ledgerService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Account, error) {
	if amount.LessThan(s.config.MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimumWithdrawal, s.config.MinWithdrawal.String())
	}
	return s.TryDebit(ctx, accountID, amount, models.TransactionTypeWithdrawal, nil)
}

// ListTrophies returns the account's trophies, newest first
func (s *ledgerService) ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error) {
	trophies, err := s.trophyRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trophies: %w", err)
	}
	return trophies, nil
}

// TopAccounts returns the richest accounts. Limits above MaxTopAccounts are clamped.
func (s *ledgerService) TopAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	if limit <= 0 {
		return []*models.Account{}, nil
	}

	accounts, err := s.accountRepo.ListTopByBalance(ctx, min(limit, MaxTopAccounts))
	if err != nil {
		return nil, fmt.Errorf("failed to list top accounts: %w", err)
	}
	return accounts, nil
}

// apply performs the atomic balance update and records its history
func (s *ledgerService) apply(ctx context.Context, accountID int64, delta decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	delta = delta.Round(AmountScale)
	if delta.IsZero() {
		return s.GetAccount(ctx, accountID)
	}

	account, err := s.accountRepo.AddBalance(ctx, accountID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	history := &models.BalanceHistory{
		AccountID:           accountID,
		BalanceBefore:       account.Balance.Sub(delta),
		BalanceAfter:        account.Balance,
		ChangeAmount:        delta,
		TransactionType:     txType,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	return account, nil
}
