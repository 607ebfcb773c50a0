package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
)

const defaultMatchListLimit = 20

// ScoutingService serves the read side: normalized matches, rounds and
// player stats for a scouted team. It never touches the provider.
type ScoutingService struct {
	matchRepo match.Repository
	roundRepo round.Repository
	statsRepo playerstat.Repository
}

func NewScoutingService(
	matchRepo match.Repository,
	roundRepo round.Repository,
	statsRepo playerstat.Repository,
) *ScoutingService {
	return &ScoutingService{
		matchRepo: matchRepo,
		roundRepo: roundRepo,
		statsRepo: statsRepo,
	}
}

// ListMatches returns the team's stored matches newest first, optionally
// narrowed to one opponent.
func (s *ScoutingService) ListMatches(ctx context.Context, teamID, opponentID string, limit int) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoutingService.ListMatches")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultMatchListLimit
	}

	matches, err := s.matchRepo.ListByTeam(ctx, teamID, strings.TrimSpace(opponentID), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %v", ErrStorage, err)
	}
	return matches, nil
}

func (s *ScoutingService) GetMatchRounds(ctx context.Context, matchID string) ([]round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoutingService.GetMatchRounds")
	defer span.End()

	matchID, err := s.requireMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	rounds, err := s.roundRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: list rounds: %v", ErrStorage, err)
	}
	return rounds, nil
}

func (s *ScoutingService) GetMatchPlayerStats(ctx context.Context, matchID string) ([]playerstat.PlayerStat, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoutingService.GetMatchPlayerStats")
	defer span.End()

	matchID, err := s.requireMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	stats, err := s.statsRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: list player stats: %v", ErrStorage, err)
	}
	return stats, nil
}

func (s *ScoutingService) requireMatch(ctx context.Context, matchID string) (string, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return "", fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	_, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return "", fmt.Errorf("%w: get match: %v", ErrStorage, err)
	}
	if !found {
		return "", fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return matchID, nil
}
