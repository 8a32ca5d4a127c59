package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeReferralReward  TransactionType = "referral_reward"
	TransactionTypeTournamentPrize TransactionType = "tournament_prize"
	TransactionTypeDailyBonus      TransactionType = "daily_bonus"
	TransactionTypeWithdrawal      TransactionType = "withdrawal"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
	TransactionTypeGame            TransactionType = "game"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeTournament RelatedType = "tournament"
	RelatedTypeAccount    RelatedType = "account"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	AccountID           int64           `db:"account_id"`
	BalanceBefore       decimal.Decimal `db:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
