package service

import (
	"context"
	"fmt"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

// Winner is one paid placement produced by a settlement
type Winner struct {
	Rank        int
	AccountID   int64
	DisplayName string
	Username    string
	Score       int
	Reward      decimal.NullDecimal
	AssetRef    string
}

// SettlementResult describes the outcome of settling a tournament
type SettlementResult struct {
	Tournament     *models.Tournament
	Winners        []Winner
	AlreadySettled bool
	EndedEarly     bool // settled before the window elapsed
}

// settlementService implements the SettlementService interface.
// It must run inside a unit of work: the tournament row lock taken in Settle
// is what makes racing settlements pay out once.
type settlementService struct {
	tournamentRepo TournamentRepository
	ranking        RankingService
	trophyRepo     TrophyRepository
	ledger         LedgerService
	eventPublisher EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(tournamentRepo TournamentRepository, ranking RankingService, trophyRepo TrophyRepository, ledger LedgerService, eventPublisher EventPublisher) SettlementService {
	return &settlementService{
		tournamentRepo: tournamentRepo,
		ranking:        ranking,
		trophyRepo:     trophyRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Settle pays out the tournament's top places and marks it finished.
// Settling an already finished tournament is a successful no-op.
func (s *settlementService) Settle(ctx context.Context, tournamentID int64, now time.Time) (*SettlementResult, error) {
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
	}

	if tournament.IsFinished() {
		return &SettlementResult{Tournament: tournament, AlreadySettled: true}, nil
	}

	endedEarly := !tournament.IsExpiredAt(now)

	standings, err := s.ranking.Leaderboard(ctx, tournamentID, tournament.PrizePlaces)
	if err != nil {
		return nil, fmt.Errorf("failed to get final standings: %w", err)
	}

	winners := make([]Winner, 0, len(standings))
	for i, standing := range standings {
		rank := i + 1
		winner, err := s.payWinner(ctx, tournament, rank, standing, now)
		if err != nil {
			return nil, fmt.Errorf("failed to pay rank %d: %w", rank, err)
		}
		winners = append(winners, winner)
	}

	changed, err := s.tournamentRepo.MarkFinished(ctx, tournamentID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark tournament finished: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("tournament %d left active state during settlement", tournamentID)
	}

	tournament.Status = models.TournamentStatusFinished
	tournament.FinishedAt = &now

	settled := events.TournamentSettledEvent{
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		SettledAt:      now,
		Winners:        make([]events.SettledWinner, 0, len(winners)),
	}
	for _, w := range winners {
		settled.Winners = append(settled.Winners, events.SettledWinner{
			Rank:      w.Rank,
			AccountID: w.AccountID,
			Score:     w.Score,
			Reward:    w.Reward,
			AssetRef:  w.AssetRef,
		})
	}
	s.eventPublisher.Publish(settled)

	return &SettlementResult{Tournament: tournament, Winners: winners, EndedEarly: endedEarly}, nil
}

// SettleByName resolves the active tournament with that name and settles it
func (s *settlementService) SettleByName(ctx context.Context, name string, now time.Time) (*SettlementResult, error) {
	tournament, err := s.tournamentRepo.GetActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("%w: no active tournament named %q", ErrTournamentNotFound, name)
	}
	return s.Settle(ctx, tournament.ID, now)
}

// payWinner writes the trophy and credits the reward for one placement
func (s *settlementService) payWinner(ctx context.Context, tournament *models.Tournament, rank int, standing *models.Standing, now time.Time) (Winner, error) {
	reward, hasReward := tournament.PrizeSchedule.RewardFor(rank)

	trophy := &models.Trophy{
		AccountID:      standing.AccountID,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		Rank:           rank,
		AssetRef:       tournament.TrophyAssets.AssetFor(rank),
		Reward:         decimal.NullDecimal{Decimal: reward, Valid: hasReward},
		AwardedAt:      now,
	}
	if err := s.trophyRepo.Create(ctx, trophy); err != nil {
		return Winner{}, fmt.Errorf("failed to create trophy: %w", err)
	}

	if hasReward && reward.IsPositive() {
		metadata := map[string]any{
			"tournament_id":   tournament.ID,
			"tournament_name": tournament.Name,
			"rank":            rank,
		}
		if _, err := s.ledger.Credit(ctx, standing.AccountID, reward, models.TransactionTypeTournamentPrize, metadata); err != nil {
			return Winner{}, fmt.Errorf("failed to credit prize: %w", err)
		}
	}

	return Winner{
		Rank:        rank,
		AccountID:   standing.AccountID,
		DisplayName: standing.DisplayName,
		Username:    standing.Username,
		Score:       standing.Score,
		Reward:      trophy.Reward,
		AssetRef:    trophy.AssetRef,
	}, nil
}
