package service

import (
	"context"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// GetByID returns the account or nil if it does not exist
	GetByID(ctx context.Context, accountID int64) (*models.Account, error)

	// GetByIDForUpdate returns the account and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error)

	// Upsert creates the account if absent and refreshes its names otherwise.
	// The boolean reports whether a new row was created.
	Upsert(ctx context.Context, accountID int64, displayName, username string) (*models.Account, bool, error)

	// AddBalance applies a signed delta atomically and returns the updated account.
	// Returns ErrAccountNotFound for unknown accounts.
	AddBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (*models.Account, error)

	// IncrementReferrals adds one to referral_count and returns the new value
	IncrementReferrals(ctx context.Context, accountID int64) (int, error)

	// SetReferrer records the referrer once; false when a referrer was already set
	SetReferrer(ctx context.Context, accountID, referrerID int64) (bool, error)

	// SetLastBonus stores the time of the last daily bonus claim
	SetLastBonus(ctx context.Context, accountID int64, at time.Time) error

	// ListIDs returns every known account id
	ListIDs(ctx context.Context) ([]int64, error)

	// ListDueBonusReminders returns accounts whose last bonus is before cutoff and
	// who have not been reminded since that bonus
	ListDueBonusReminders(ctx context.Context, cutoff time.Time, limit int) ([]*models.Account, error)

	// MarkBonusReminded stores the time a bonus reminder was sent
	MarkBonusReminded(ctx context.Context, accountID int64, at time.Time) error

	// ListTopByBalance returns the richest accounts, ties broken by account id
	ListTopByBalance(ctx context.Context, limit int) ([]*models.Account, error)
}

// BalanceHistoryRepository defines the interface for balance audit persistence
type BalanceHistoryRepository interface {
	// Record inserts a history row and fills its ID and CreatedAt
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByAccount returns the newest history rows for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error)
}

// TournamentRepository defines the interface for tournament persistence
type TournamentRepository interface {
	// Create inserts the tournament and fills ID, Status and CreatedAt
	Create(ctx context.Context, tournament *models.Tournament) error

	// GetByID returns the tournament or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Tournament, error)

	// GetByIDForUpdate returns the tournament and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error)

	// GetActiveAt returns the active in-window tournament with the highest id, or nil
	GetActiveAt(ctx context.Context, now time.Time) (*models.Tournament, error)

	// GetActiveByName returns the active tournament with that name and the highest id, or nil
	GetActiveByName(ctx context.Context, name string) (*models.Tournament, error)

	// ListActiveWindowed returns active in-window tournaments ordered by start time
	ListActiveWindowed(ctx context.Context, now time.Time) ([]*models.Tournament, error)

	// ListExpired returns active tournaments whose end time is at or before now
	ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error)

	// ListStartedBetween returns active tournaments with a start message whose start
	// time falls in (from, to]
	ListStartedBetween(ctx context.Context, from, to time.Time) ([]*models.Tournament, error)

	// ListOverlapping returns active tournaments whose window intersects [start, end)
	ListOverlapping(ctx context.Context, start, end time.Time) ([]*models.Tournament, error)

	// ListRecent returns the most recently created tournaments
	ListRecent(ctx context.Context, limit int) ([]*models.Tournament, error)

	// LockForCreate serializes tournament creation until the transaction ends
	LockForCreate(ctx context.Context) error

	// MarkFinished flips an active tournament to finished.
	// Returns false if the tournament was not active.
	MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error)
}

// ParticipationRepository defines the interface for per-tournament scores
type ParticipationRepository interface {
	// Upsert creates a zero-score participation if absent
	Upsert(ctx context.Context, tournamentID, accountID int64) error

	// IncrementScore creates the participation at score 1 or adds one, returning the new score
	IncrementScore(ctx context.Context, tournamentID, accountID int64) (int, error)

	// Get returns the participation or nil
	Get(ctx context.Context, tournamentID, accountID int64) (*models.Participation, error)

	// Leaderboard returns standings ordered by score desc, last_scored_at asc, account_id asc
	Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error)

	// CountWithScoreAbove counts participants with a strictly greater score
	CountWithScoreAbove(ctx context.Context, tournamentID int64, score int) (int, error)

	// Count returns the number of participants
	Count(ctx context.Context, tournamentID int64) (int, error)
}

// TrophyRepository defines the interface for trophy persistence
type TrophyRepository interface {
	// Create inserts the trophy and fills ID and AwardedAt
	Create(ctx context.Context, trophy *models.Trophy) error

	// ListByAccount returns an account's trophies, newest first
	ListByAccount(ctx context.Context, accountID int64) ([]*models.Trophy, error)

	// ListByTournament returns a tournament's trophies ordered by rank
	ListByTournament(ctx context.Context, tournamentID int64) ([]*models.Trophy, error)
}

// TournamentBroadcastRepository defines the interface for start broadcast markers
type TournamentBroadcastRepository interface {
	// Claim inserts the marker; false when another sweep already claimed it
	Claim(ctx context.Context, tournamentID int64, at time.Time) (bool, error)

	// SetRecipients stores how many accounts received the broadcast
	SetRecipients(ctx context.Context, tournamentID int64, recipients int) error

	// DeleteClaimedBefore prunes markers claimed before cutoff
	DeleteClaimedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// Notifier delivers a direct message to an account. Delivery is best-effort:
// callers log failures and never propagate them.
type Notifier interface {
	Notify(ctx context.Context, accountID int64, message string) error
}

// LedgerService defines the interface for balance and account operations
type LedgerService interface {
	// EnsureAccount creates the account on first interaction
	EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error)

	// GetAccount returns the account or ErrAccountNotFound
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// GetBalance returns the balance, zero for unknown accounts
	GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// Credit applies a signed amount without any balance check
	Credit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error)

	// Debit subtracts a signed amount without any balance check
	Debit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error)

	// TryDebit subtracts a positive amount only if the balance covers it
	TryDebit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error)

	// IncrementReferrals adds one to the account's referral count
	IncrementReferrals(ctx context.Context, accountID int64) (int, error)

	// ClaimDailyBonus credits the daily bonus once per cooldown
	ClaimDailyBonus(ctx context.Context, accountID int64, now time.Time) (*BonusClaim, error)

	// Withdraw debits a withdrawal of at least the configured minimum
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Account, error)

	// ListTrophies returns the account's trophies, newest first
	ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error)

	// TopAccounts returns up to limit accounts with the highest balances
	TopAccounts(ctx context.Context, limit int) ([]*models.Account, error)
}

// TournamentService defines the interface for the tournament store
type TournamentService interface {
	Create(ctx context.Context, params CreateTournamentParams) (*models.Tournament, error)
	GetByID(ctx context.Context, id int64) (*models.Tournament, error)
	GetActiveAt(ctx context.Context, now time.Time) (*models.Tournament, error)
	GetActiveByName(ctx context.Context, name string) (*models.Tournament, error)
	ListActiveWindowed(ctx context.Context, now time.Time) ([]*models.Tournament, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Tournament, error)
	Join(ctx context.Context, tournamentID, accountID int64) error
	IncrementScore(ctx context.Context, tournamentID, accountID int64) (int, error)
}

// RankingService defines the interface for tournament standings
type RankingService interface {
	Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error)
	RankOf(ctx context.Context, tournamentID, accountID int64) (rank int, score int, err error)
	Participants(ctx context.Context, tournamentID int64) (int, error)
}

// SettlementService defines the interface for converting standings into rewards
type SettlementService interface {
	Settle(ctx context.Context, tournamentID int64, now time.Time) (*SettlementResult, error)
	SettleByName(ctx context.Context, name string, now time.Time) (*SettlementResult, error)
}

// ReferralService defines the interface for referral intake
type ReferralService interface {
	OnReferral(ctx context.Context, newAccountID, referrerID int64, now time.Time) (*ReferralResult, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	TournamentRepository() TournamentRepository
	ParticipationRepository() ParticipationRepository
	TrophyRepository() TrophyRepository
	TournamentBroadcastRepository() TournamentBroadcastRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
