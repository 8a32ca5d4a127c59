package service

import (
	"context"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/models"
)

// MaxLeaderboardLimit bounds a single leaderboard read
const MaxLeaderboardLimit = 100

// rankingService implements the RankingService interface
type rankingService struct {
	participationRepo ParticipationRepository
}

// NewRankingService creates a new ranking service
func NewRankingService(participationRepo ParticipationRepository) RankingService {
	return &rankingService{participationRepo: participationRepo}
}

// Leaderboard returns the top standings. Equal scores are ordered by who reached
// the score first, then by account id. Limits above MaxLeaderboardLimit are clamped.
func (s *rankingService) Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error) {
	if limit <= 0 {
		return []*models.Standing{}, nil
	}
	limit = min(limit, MaxLeaderboardLimit)

	standings, err := s.participationRepo.Leaderboard(ctx, tournamentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return standings, nil
}

// RankOf returns 1 + the number of participants with a strictly greater score.
// Tied participants share a rank. Accounts without a participation rank as score 0.
func (s *rankingService) RankOf(ctx context.Context, tournamentID, accountID int64) (int, int, error) {
	participation, err := s.participationRepo.Get(ctx, tournamentID, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get participation: %w", err)
	}

	score := 0
	if participation != nil {
		score = participation.Score
	}

	above, err := s.participationRepo.CountWithScoreAbove(ctx, tournamentID, score)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count higher scores: %w", err)
	}

	return above + 1, score, nil
}

// Participants returns how many accounts have joined the tournament
func (s *rankingService) Participants(ctx context.Context, tournamentID int64) (int, error) {
	count, err := s.participationRepo.Count(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
