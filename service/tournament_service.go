package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"
)

// MaxPrizePlaces bounds how many ranks a tournament can pay out
const MaxPrizePlaces = 100

// CreateTournamentParams holds everything an administrator supplies for a new tournament
type CreateTournamentParams struct {
	Name          string
	StartTime     time.Time
	DurationDays  int
	PrizePlaces   int // Defaults to the highest rank in PrizeSchedule when zero
	PrizeSchedule models.PrizeSchedule
	TrophyAssets  models.TrophyAssets
	StartMessage  string
}

// Validate checks the parameters and fills derived defaults
func (p *CreateTournamentParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTournament)
	}
	if p.StartTime.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidTournament)
	}
	if p.DurationDays < 1 {
		return fmt.Errorf("%w: duration must be at least one day", ErrInvalidTournament)
	}

	if p.PrizePlaces == 0 {
		for rank := range p.PrizeSchedule {
			if rank > p.PrizePlaces {
				p.PrizePlaces = rank
			}
		}
	}
	if p.PrizePlaces < 1 {
		return fmt.Errorf("%w: at least one prize place is required", ErrInvalidTournament)
	}
	if p.PrizePlaces > MaxPrizePlaces {
		return fmt.Errorf("%w: at most %d prize places are allowed", ErrInvalidTournament, MaxPrizePlaces)
	}

	for rank, reward := range p.PrizeSchedule {
		if rank < 1 || rank > p.PrizePlaces {
			return fmt.Errorf("%w: prize rank %d outside 1..%d", ErrInvalidTournament, rank, p.PrizePlaces)
		}
		if reward.IsNegative() {
			return fmt.Errorf("%w: prize for rank %d is negative", ErrInvalidTournament, rank)
		}
	}

	assets, err := normalizeTrophyAssets(p.TrophyAssets, p.PrizePlaces)
	if err != nil {
		return err
	}
	p.TrophyAssets = assets

	return nil
}

// normalizeTrophyAssets rewrites rank keys to their canonical decimal form so
// "01" and "1" address the same rank
func normalizeTrophyAssets(assets models.TrophyAssets, places int) (models.TrophyAssets, error) {
	if assets == nil {
		return nil, nil
	}

	normalized := make(models.TrophyAssets, len(assets))
	for key, asset := range assets {
		key = strings.TrimSpace(key)
		if key == models.DefaultTrophyAssetKey {
			normalized[key] = asset
			continue
		}

		rank, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: trophy key %q is neither a rank nor %q", ErrInvalidTournament, key, models.DefaultTrophyAssetKey)
		}
		if rank < 1 || rank > places {
			return nil, fmt.Errorf("%w: trophy rank %d outside 1..%d", ErrInvalidTournament, rank, places)
		}

		canonical := strconv.Itoa(rank)
		if _, dup := normalized[canonical]; dup {
			return nil, fmt.Errorf("%w: duplicate trophy for rank %d", ErrInvalidTournament, rank)
		}
		normalized[canonical] = asset
	}
	return normalized, nil
}

// EndTime derives the end of the tournament window
func (p *CreateTournamentParams) EndTime() time.Time {
	return p.StartTime.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
}

// tournamentService implements the TournamentService interface
type tournamentService struct {
	tournamentRepo    TournamentRepository
	participationRepo ParticipationRepository
	eventPublisher    EventPublisher
	config            *config.Config
}

// NewTournamentService creates a new tournament service
func NewTournamentService(tournamentRepo TournamentRepository, participationRepo ParticipationRepository, eventPublisher EventPublisher, cfg *config.Config) TournamentService {
	return &tournamentService{
		tournamentRepo:    tournamentRepo,
		participationRepo: participationRepo,
		eventPublisher:    eventPublisher,
		config:            cfg,
	}
}

// Create validates and persists a new active tournament
func (s *tournamentService) Create(ctx context.Context, params CreateTournamentParams) (*models.Tournament, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := params.StartTime.UTC()
	end := params.EndTime().UTC()

	if !s.config.AllowOverlappingWindow {
		if err := s.tournamentRepo.LockForCreate(ctx); err != nil {
			return nil, fmt.Errorf("failed to lock tournament creation: %w", err)
		}

		overlapping, err := s.tournamentRepo.ListOverlapping(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to check overlapping tournaments: %w", err)
		}
		if len(overlapping) > 0 {
			return nil, fmt.Errorf("%w: %q (id %d) runs until %s", ErrTournamentOverlap,
				overlapping[0].Name, overlapping[0].ID, overlapping[0].EndTime.UTC().Format(time.RFC3339))
		}
	}

	tournament := &models.Tournament{
		Name:          params.Name,
		StartTime:     start,
		EndTime:       end,
		DurationDays:  params.DurationDays,
		PrizePlaces:   params.PrizePlaces,
		PrizeSchedule: params.PrizeSchedule,
		TrophyAssets:  params.TrophyAssets,
		Status:        models.TournamentStatusActive,
	}
	if msg := strings.TrimSpace(params.StartMessage); msg != "" {
		tournament.StartMessage = &msg
	}
	if tournament.PrizeSchedule == nil {
		tournament.PrizeSchedule = models.PrizeSchedule{}
	}
	if tournament.TrophyAssets == nil {
		tournament.TrophyAssets = models.TrophyAssets{}
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.eventPublisher.Publish(events.TournamentCreatedEvent{
		TournamentID: tournament.ID,
		Name:         tournament.Name,
		StartTime:    tournament.StartTime,
		EndTime:      tournament.EndTime,
	})

	return tournament, nil
}

// GetByID returns the tournament or ErrTournamentNotFound
func (s *tournamentService) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, id)
	}
	return tournament, nil
}

// GetActiveAt returns the tournament running at now, or nil when none is
func (s *tournamentService) GetActiveAt(ctx context.Context, now time.Time) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetActiveAt(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tournament: %w", err)
	}
	return tournament, nil
}

// GetActiveByName resolves an active tournament by name or returns ErrTournamentNotFound
func (s *tournamentService) GetActiveByName(ctx context.Context, name string) (*models.Tournament, error) {
	name = strings.TrimSpace(name)
	tournament, err := s.tournamentRepo.GetActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament by name: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("%w: no active tournament named %q", ErrTournamentNotFound, name)
	}
	return tournament, nil
}

// ListActiveWindowed returns every tournament running at now, earliest start first
func (s *tournamentService) ListActiveWindowed(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListActiveWindowed(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}
	return tournaments, nil
}

// ListExpired returns active tournaments whose window has elapsed
func (s *tournamentService) ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired tournaments: %w", err)
	}
	return tournaments, nil
}

// ListRecent returns the latest tournaments regardless of status
func (s *tournamentService) ListRecent(ctx context.Context, limit int) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// Join registers the account with a zero score; joining twice is a no-op
func (s *tournamentService) Join(ctx context.Context, tournamentID, accountID int64) error {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return err
	}
	if err := s.participationRepo.Upsert(ctx, tournamentID, accountID); err != nil {
		return fmt.Errorf("failed to join tournament: %w", err)
	}
	return nil
}

// IncrementScore adds one point for the account, creating the participation if needed
func (s *tournamentService) IncrementScore(ctx context.Context, tournamentID, accountID int64) (int, error) {
	score, err := s.participationRepo.IncrementScore(ctx, tournamentID, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment score: %w", err)
	}
	return score, nil
}
