package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user's persistent balance and referral record
type Account struct {
	AccountID       int64           `db:"account_id" json:"account_id"`
	DisplayName     string          `db:"display_name" json:"display_name"`
	Username        string          `db:"username" json:"username"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	ReferralCount   int             `db:"referral_count" json:"referral_count"`
	ReferredBy      *int64          `db:"referred_by" json:"referred_by"`
	LastBonusAt     *time.Time      `db:"last_bonus_at" json:"last_bonus_at"`
	BonusRemindedAt *time.Time      `db:"bonus_reminded_at" json:"bonus_reminded_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NextBonusAt returns when the account may claim its next daily bonus
func (a *Account) NextBonusAt(cooldown time.Duration) time.Time {
	if a.LastBonusAt == nil {
		return time.Time{}
	}
	return a.LastBonusAt.Add(cooldown)
}

// CanClaimBonus reports whether the cooldown since the last bonus has elapsed
func (a *Account) CanClaimBonus(now time.Time, cooldown time.Duration) bool {
	return !now.Before(a.NextBonusAt(cooldown))
}
