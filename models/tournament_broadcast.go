package models

import "time"

// TournamentBroadcast marks a tournament whose start message has been claimed for sending
type TournamentBroadcast struct {
	TournamentID int64     `db:"tournament_id"`
	ClaimedAt    time.Time `db:"claimed_at"`
	Recipients   int       `db:"recipients"`
}
