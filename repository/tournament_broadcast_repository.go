package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/database"
)

// TournamentBroadcastRepository implements the TournamentBroadcastRepository interface
type TournamentBroadcastRepository struct {
	q queryable
}

// NewTournamentBroadcastRepository creates a new broadcast marker repository
func NewTournamentBroadcastRepository(db *database.DB) *TournamentBroadcastRepository {
	return &TournamentBroadcastRepository{q: db.Pool}
}

// newTournamentBroadcastRepositoryWithTx creates a new broadcast marker repository with a transaction
func newTournamentBroadcastRepositoryWithTx(tx queryable) *TournamentBroadcastRepository {
	return &TournamentBroadcastRepository{q: tx}
}

// Claim inserts the marker. Only the first caller per tournament gets true.
func (r *TournamentBroadcastRepository) Claim(ctx context.Context, tournamentID int64, at time.Time) (bool, error) {
	query := `
		INSERT INTO tournament_broadcasts (tournament_id, claimed_at)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, tournamentID, at)
	if err != nil {
		return false, fmt.Errorf("failed to claim broadcast for tournament %d: %w", tournamentID, err)
	}
	return result.RowsAffected() == 1, nil
}

// SetRecipients stores how many accounts the broadcast reached
func (r *TournamentBroadcastRepository) SetRecipients(ctx context.Context, tournamentID int64, recipients int) error {
	query := `UPDATE tournament_broadcasts SET recipients = $2 WHERE tournament_id = $1`

	if _, err := r.q.Exec(ctx, query, tournamentID, recipients); err != nil {
		return fmt.Errorf("failed to store broadcast recipients for tournament %d: %w", tournamentID, err)
	}
	return nil
}

// DeleteClaimedBefore prunes markers older than cutoff
func (r *TournamentBroadcastRepository) DeleteClaimedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM tournament_broadcasts WHERE claimed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune broadcast markers: %w", err)
	}
	return result.RowsAffected(), nil
}
