package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trophy is an immutable record of a settled tournament placement
type Trophy struct {
	ID             int64               `db:"id" json:"id"`
	AccountID      int64               `db:"account_id" json:"account_id"`
	TournamentID   int64               `db:"tournament_id" json:"tournament_id"`
	TournamentName string              `db:"tournament_name" json:"tournament_name"`
	Rank           int                 `db:"rank" json:"rank"`
	AssetRef       string              `db:"asset_ref" json:"asset_ref"`
	Reward         decimal.NullDecimal `db:"reward" json:"reward"`
	AwardedAt      time.Time           `db:"awarded_at" json:"awarded_at"`
}
