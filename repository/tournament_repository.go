package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/jackc/pgx/v5"
)

// tournamentCreateLockKey is the advisory lock that serializes overlap checks
const tournamentCreateLockKey int64 = 0x7374617273

const tournamentColumns = `id, name, start_time, end_time, duration_days, prize_places,
	prize_schedule, trophy_assets, status, start_message, finished_at, created_at`

// TournamentRepository implements the TournamentRepository interface
type TournamentRepository struct {
	q queryable
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *database.DB) *TournamentRepository {
	return &TournamentRepository{q: db.Pool}
}

// newTournamentRepositoryWithTx creates a new tournament repository with a transaction
func newTournamentRepositoryWithTx(tx queryable) *TournamentRepository {
	return &TournamentRepository{q: tx}
}

func scanTournament(row pgx.Row) (*models.Tournament, error) {
	var tournament models.Tournament
	var scheduleJSON, assetsJSON []byte

	err := row.Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.StartTime,
		&tournament.EndTime,
		&tournament.DurationDays,
		&tournament.PrizePlaces,
		&scheduleJSON,
		&assetsJSON,
		&tournament.Status,
		&tournament.StartMessage,
		&tournament.FinishedAt,
		&tournament.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tournament.PrizeSchedule = models.PrizeSchedule{}
	if len(scheduleJSON) > 0 {
		if err := json.Unmarshal(scheduleJSON, &tournament.PrizeSchedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prize schedule: %w", err)
		}
	}
	tournament.TrophyAssets = models.TrophyAssets{}
	if len(assetsJSON) > 0 {
		if err := json.Unmarshal(assetsJSON, &tournament.TrophyAssets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trophy assets: %w", err)
		}
	}

	return &tournament, nil
}

func (r *TournamentRepository) getOne(ctx context.Context, query string, args ...any) (*models.Tournament, error) {
	tournament, err := scanTournament(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return tournament, err
}

func (r *TournamentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Tournament, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		tournament, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, tournament)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournaments: %w", err)
	}

	return tournaments, nil
}

// Create inserts a new tournament
func (r *TournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	scheduleJSON, err := json.Marshal(tournament.PrizeSchedule)
	if err != nil {
		return fmt.Errorf("failed to marshal prize schedule: %w", err)
	}
	assetsJSON, err := json.Marshal(tournament.TrophyAssets)
	if err != nil {
		return fmt.Errorf("failed to marshal trophy assets: %w", err)
	}

	status := tournament.Status
	if status == "" {
		status = models.TournamentStatusActive
	}

	query := `
		INSERT INTO tournaments
		(name, start_time, end_time, duration_days, prize_places, prize_schedule, trophy_assets, status, start_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, status, created_at
	`

	err = r.q.QueryRow(ctx, query,
		tournament.Name,
		tournament.StartTime,
		tournament.EndTime,
		tournament.DurationDays,
		tournament.PrizePlaces,
		scheduleJSON,
		assetsJSON,
		status,
		tournament.StartMessage,
	).Scan(&tournament.ID, &tournament.Status, &tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament %q: %w", tournament.Name, err)
	}

	return nil
}

// GetByID retrieves a tournament by id
func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	tournament, err := r.getOne(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

// GetByIDForUpdate retrieves a tournament and locks its row for the rest of the transaction
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error) {
	tournament, err := r.getOne(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament %d: %w", id, err)
	}
	return tournament, nil
}

// GetActiveAt returns the newest active tournament whose window contains now
func (r *TournamentRepository) GetActiveAt(ctx context.Context, now time.Time) (*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND start_time <= $1 AND end_time > $1
		ORDER BY id DESC
		LIMIT 1
	`

	tournament, err := r.getOne(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tournament: %w", err)
	}
	return tournament, nil
}

// GetActiveByName returns the newest active tournament with the given name
func (r *TournamentRepository) GetActiveByName(ctx context.Context, name string) (*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND name = $1
		ORDER BY id DESC
		LIMIT 1
	`

	tournament, err := r.getOne(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %q: %w", name, err)
	}
	return tournament, nil
}

// ListActiveWindowed returns active tournaments whose window contains now
func (r *TournamentRepository) ListActiveWindowed(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND start_time <= $1 AND end_time > $1
		ORDER BY start_time, id
	`

	tournaments, err := r.list(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}
	return tournaments, nil
}

// ListExpired returns active tournaments whose window has closed
func (r *TournamentRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND end_time <= $1
		ORDER BY end_time, id
	`

	tournaments, err := r.list(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired tournaments: %w", err)
	}
	return tournaments, nil
}

// ListStartedBetween returns active tournaments with a start message that
// started in (from, to]
func (r *TournamentRepository) ListStartedBetween(ctx context.Context, from, to time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active'
		  AND start_message IS NOT NULL AND start_message <> ''
		  AND start_time > $1 AND start_time <= $2
		ORDER BY start_time, id
	`

	tournaments, err := r.list(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list started tournaments: %w", err)
	}
	return tournaments, nil
}

// ListOverlapping returns active tournaments whose window intersects [start, end)
func (r *TournamentRepository) ListOverlapping(ctx context.Context, start, end time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND start_time < $2 AND end_time > $1
		ORDER BY start_time, id
	`

	tournaments, err := r.list(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping tournaments: %w", err)
	}
	return tournaments, nil
}

// ListRecent returns the most recently created tournaments
func (r *TournamentRepository) ListRecent(ctx context.Context, limit int) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		ORDER BY id DESC
		LIMIT $1
	`

	tournaments, err := r.list(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent tournaments: %w", err)
	}
	return tournaments, nil
}

// LockForCreate takes a transaction-scoped advisory lock. Outside a
// transaction the lock is released immediately and serializes nothing.
func (r *TournamentRepository) LockForCreate(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tournamentCreateLockKey); err != nil {
		return fmt.Errorf("failed to acquire tournament creation lock: %w", err)
	}
	return nil
}

// MarkFinished transitions an active tournament to finished
func (r *TournamentRepository) MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE tournaments
		SET status = 'finished', finished_at = $2
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark tournament %d finished: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}
