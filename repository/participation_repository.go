package repository

import (
	"context"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/jackc/pgx/v5"
)

// ParticipationRepository implements the ParticipationRepository interface
type ParticipationRepository struct {
	q queryable
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db *database.DB) *ParticipationRepository {
	return &ParticipationRepository{q: db.Pool}
}

// newParticipationRepositoryWithTx creates a new participation repository with a transaction
func newParticipationRepositoryWithTx(tx queryable) *ParticipationRepository {
	return &ParticipationRepository{q: tx}
}

// Upsert registers a zero-score participation if the account has none
func (r *ParticipationRepository) Upsert(ctx context.Context, tournamentID, accountID int64) error {
	query := `
		INSERT INTO participations (tournament_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id, account_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, tournamentID, accountID); err != nil {
		return fmt.Errorf("failed to upsert participation for account %d in tournament %d: %w", accountID, tournamentID, err)
	}
	return nil
}

// IncrementScore adds one point in a single statement so concurrent increments never lose updates
func (r *ParticipationRepository) IncrementScore(ctx context.Context, tournamentID, accountID int64) (int, error) {
	query := `
		INSERT INTO participations (tournament_id, account_id, score, last_scored_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (tournament_id, account_id) DO UPDATE SET
			score = participations.score + 1,
			last_scored_at = NOW()
		RETURNING score
	`

	var score int
	if err := r.q.QueryRow(ctx, query, tournamentID, accountID).Scan(&score); err != nil {
		return 0, fmt.Errorf("failed to increment score for account %d in tournament %d: %w", accountID, tournamentID, err)
	}
	return score, nil
}

// Get returns a single participation or nil
func (r *ParticipationRepository) Get(ctx context.Context, tournamentID, accountID int64) (*models.Participation, error) {
	query := `
		SELECT tournament_id, account_id, score, joined_at, last_scored_at
		FROM participations
		WHERE tournament_id = $1 AND account_id = $2
	`

	var p models.Participation
	err := r.q.QueryRow(ctx, query, tournamentID, accountID).Scan(
		&p.TournamentID,
		&p.AccountID,
		&p.Score,
		&p.JoinedAt,
		&p.LastScoredAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

// Leaderboard returns the top standings with a deterministic order for equal scores
func (r *ParticipationRepository) Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error) {
	query := `
		SELECT p.account_id, a.display_name, a.username, p.score
		FROM participations p
		JOIN accounts a ON a.account_id = p.account_id
		WHERE p.tournament_id = $1
		ORDER BY p.score DESC, p.last_scored_at ASC, p.account_id ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, tournamentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := []*models.Standing{}
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(&s.AccountID, &s.DisplayName, &s.Username, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		s.Position = len(standings) + 1
		standings = append(standings, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate standings: %w", err)
	}

	return standings, nil
}

// CountWithScoreAbove counts participants with a strictly greater score
func (r *ParticipationRepository) CountWithScoreAbove(ctx context.Context, tournamentID int64, score int) (int, error) {
	query := `SELECT COUNT(*) FROM participations WHERE tournament_id = $1 AND score > $2`

	var count int
	if err := r.q.QueryRow(ctx, query, tournamentID, score).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count higher scores: %w", err)
	}
	return count, nil
}

// Count returns the number of participants in a tournament
func (r *ParticipationRepository) Count(ctx context.Context, tournamentID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM participations WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
