package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, display_name, username, balance, referral_count,
	referred_by, last_bonus_at, bonus_reminded_at, created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.AccountID,
		&account.DisplayName,
		&account.Username,
		&account.Balance,
		&account.ReferralCount,
		&account.ReferredBy,
		&account.LastBonusAt,
		&account.BonusRemindedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its platform id
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	return account, nil
}

// GetByIDForUpdate retrieves an account and locks its row for the rest of the transaction
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", accountID, err)
	}
	return account, nil
}

// Upsert creates the account or refreshes its names. Empty names never
// overwrite known ones.
func (r *AccountRepository) Upsert(ctx context.Context, accountID int64, displayName, username string) (*models.Account, bool, error) {
	query := `
		INSERT INTO accounts (account_id, display_name, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), accounts.display_name),
			username = COALESCE(NULLIF(EXCLUDED.username, ''), accounts.username),
			updated_at = NOW()
		RETURNING ` + accountColumns + `, (xmax = 0) AS inserted
	`

	var account models.Account
	var inserted bool
	err := r.q.QueryRow(ctx, query, accountID, displayName, username).Scan(
		&account.AccountID,
		&account.DisplayName,
		&account.Username,
		&account.Balance,
		&account.ReferralCount,
		&account.ReferredBy,
		&account.LastBonusAt,
		&account.BonusRemindedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert account %d: %w", accountID, err)
	}

	return &account, inserted, nil
}

// AddBalance applies a signed delta in a single statement and returns the updated row
func (r *AccountRepository) AddBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE account_id = $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, delta, accountID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", service.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add balance for account %d: %w", accountID, err)
	}
	return account, nil
}

// IncrementReferrals adds one to referral_count and returns the new value
func (r *AccountRepository) IncrementReferrals(ctx context.Context, accountID int64) (int, error) {
	query := `
		UPDATE accounts
		SET referral_count = referral_count + 1, updated_at = NOW()
		WHERE account_id = $1
		RETURNING referral_count
	`

	var count int
	err := r.q.QueryRow(ctx, query, accountID).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("%w: %d", service.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment referrals for account %d: %w", accountID, err)
	}
	return count, nil
}

// SetReferrer records the referrer only if none is set yet
func (r *AccountRepository) SetReferrer(ctx context.Context, accountID, referrerID int64) (bool, error) {
	query := `
		UPDATE accounts
		SET referred_by = $2, updated_at = NOW()
		WHERE account_id = $1 AND referred_by IS NULL
	`

	result, err := r.q.Exec(ctx, query, accountID, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to set referrer for account %d: %w", accountID, err)
	}
	return result.RowsAffected() == 1, nil
}

// SetLastBonus stores the time of the last daily bonus claim
func (r *AccountRepository) SetLastBonus(ctx context.Context, accountID int64, at time.Time) error {
	query := `
		UPDATE accounts
		SET last_bonus_at = $2, updated_at = NOW()
		WHERE account_id = $1
	`

	result, err := r.q.Exec(ctx, query, accountID, at)
	if err != nil {
		return fmt.Errorf("failed to set last bonus for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", service.ErrAccountNotFound, accountID)
	}
	return nil
}

// ListIDs returns every account id in ascending order
func (r *AccountRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT account_id FROM accounts ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list account ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan account ids: %w", err)
	}
	return ids, nil
}

// ListDueBonusReminders returns accounts that claimed a bonus before cutoff and
// have not been reminded since
func (r *AccountRepository) ListDueBonusReminders(ctx context.Context, cutoff time.Time, limit int) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE last_bonus_at IS NOT NULL
		  AND last_bonus_at <= $1
		  AND (bonus_reminded_at IS NULL OR bonus_reminded_at < last_bonus_at)
		ORDER BY last_bonus_at
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due bonus reminders: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// MarkBonusReminded stores when the bonus reminder went out
func (r *AccountRepository) MarkBonusReminded(ctx context.Context, accountID int64, at time.Time) error {
	query := `UPDATE accounts SET bonus_reminded_at = $2 WHERE account_id = $1`

	if _, err := r.q.Exec(ctx, query, accountID, at); err != nil {
		return fmt.Errorf("failed to mark bonus reminder for account %d: %w", accountID, err)
	}
	return nil
}

// ListTopByBalance returns the accounts with the highest balances
func (r *AccountRepository) ListTopByBalance(ctx context.Context, limit int) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY balance DESC, account_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
