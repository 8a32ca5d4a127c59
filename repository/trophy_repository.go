package repository

import (
	"context"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/models"
)

// TrophyRepository implements the TrophyRepository interface
type TrophyRepository struct {
	q queryable
}

// NewTrophyRepository creates a new trophy repository
func NewTrophyRepository(db *database.DB) *TrophyRepository {
	return &TrophyRepository{q: db.Pool}
}

// newTrophyRepositoryWithTx creates a new trophy repository with a transaction
func newTrophyRepositoryWithTx(tx queryable) *TrophyRepository {
	return &TrophyRepository{q: tx}
}

// Create inserts a trophy. A second trophy for the same account and tournament
// violates the unique constraint.
func (r *TrophyRepository) Create(ctx context.Context, trophy *models.Trophy) error {
	query := `
		INSERT INTO trophies (account_id, tournament_id, tournament_name, rank, asset_ref, reward, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		RETURNING id, awarded_at
	`

	var awardedAt any
	if !trophy.AwardedAt.IsZero() {
		awardedAt = trophy.AwardedAt
	}

	err := r.q.QueryRow(ctx, query,
		trophy.AccountID,
		trophy.TournamentID,
		trophy.TournamentName,
		trophy.Rank,
		trophy.AssetRef,
		trophy.Reward,
		awardedAt,
	).Scan(&trophy.ID, &trophy.AwardedAt)
	if err != nil {
		return fmt.Errorf("failed to create trophy for account %d in tournament %d: %w", trophy.AccountID, trophy.TournamentID, err)
	}

	return nil
}

// ListByAccount returns an account's trophies, newest first
func (r *TrophyRepository) ListByAccount(ctx context.Context, accountID int64) ([]*models.Trophy, error) {
	query := `
		SELECT id, account_id, tournament_id, tournament_name, rank, asset_ref, reward, awarded_at
		FROM trophies
		WHERE account_id = $1
		ORDER BY awarded_at DESC, id DESC
	`

	trophies, err := r.list(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trophies for account %d: %w", accountID, err)
	}
	return trophies, nil
}

// ListByTournament returns a tournament's trophies ordered by rank
func (r *TrophyRepository) ListByTournament(ctx context.Context, tournamentID int64) ([]*models.Trophy, error) {
	query := `
		SELECT id, account_id, tournament_id, tournament_name, rank, asset_ref, reward, awarded_at
		FROM trophies
		WHERE tournament_id = $1
		ORDER BY rank
	`

	trophies, err := r.list(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trophies for tournament %d: %w", tournamentID, err)
	}
	return trophies, nil
}

func (r *TrophyRepository) list(ctx context.Context, query string, args ...any) ([]*models.Trophy, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trophies := []*models.Trophy{}
	for rows.Next() {
		var t models.Trophy
		err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.TournamentID,
			&t.TournamentName,
			&t.Rank,
			&t.AssetRef,
			&t.Reward,
			&t.AwardedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trophy: %w", err)
		}
		trophies = append(trophies, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trophies: %w", err)
	}

	return trophies, nil
}
