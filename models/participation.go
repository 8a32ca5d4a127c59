package models

import "time"

// Participation is an account's accruing score within one tournament
type Participation struct {
	TournamentID int64     `db:"tournament_id" json:"tournament_id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	Score        int       `db:"score" json:"score"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
	LastScoredAt time.Time `db:"last_scored_at" json:"last_scored_at"`
}

// Standing is one leaderboard row
type Standing struct {
	Position    int    `json:"position"`
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
}
