package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TournamentStatus represents the lifecycle state of a tournament
type TournamentStatus string

const (
	TournamentStatusActive   TournamentStatus = "active"
	TournamentStatusFinished TournamentStatus = "finished"
)

// DefaultTrophyAssetKey is the trophy_assets key used when a rank has no asset of its own
const DefaultTrophyAssetKey = "default"

// PrizeSchedule maps a 1-based rank to its reward
type PrizeSchedule map[int]decimal.Decimal

// RewardFor returns the reward configured for rank, if any
func (p PrizeSchedule) RewardFor(rank int) (decimal.Decimal, bool) {
	reward, ok := p[rank]
	return reward, ok
}

// TrophyAssets maps a rank (as a string) or "default" to an opaque asset reference
type TrophyAssets map[string]string

// AssetFor returns the asset for rank, falling back to the default asset, else empty
func (a TrophyAssets) AssetFor(rank int) string {
	if asset, ok := a[strconv.Itoa(rank)]; ok && asset != "" {
		return asset
	}
	return a[DefaultTrophyAssetKey]
}

// Tournament is a time-boxed competition scored by referral count
type Tournament struct {
	ID            int64            `db:"id" json:"id"`
	Name          string           `db:"name" json:"name"`
	StartTime     time.Time        `db:"start_time" json:"start_time"`
	EndTime       time.Time        `db:"end_time" json:"end_time"`
	DurationDays  int              `db:"duration_days" json:"duration_days"`
	PrizePlaces   int              `db:"prize_places" json:"prize_places"`
	PrizeSchedule PrizeSchedule    `db:"prize_schedule" json:"prize_schedule"`
	TrophyAssets  TrophyAssets     `db:"trophy_assets" json:"trophy_assets"`
	Status        TournamentStatus `db:"status" json:"status"`
	StartMessage  *string          `db:"start_message" json:"start_message"`
	FinishedAt    *time.Time       `db:"finished_at" json:"finished_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// IsFinished reports whether the tournament has been settled
func (t *Tournament) IsFinished() bool {
	return t.Status == TournamentStatusFinished
}

// IsExpiredAt reports whether the window has elapsed without settlement
func (t *Tournament) IsExpiredAt(now time.Time) bool {
	return t.Status == TournamentStatusActive && !now.Before(t.EndTime)
}

// HasStartMessage reports whether a start broadcast is configured
func (t *Tournament) HasStartMessage() bool {
	return t.StartMessage != nil && *t.StartMessage != ""
}
