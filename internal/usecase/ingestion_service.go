package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
)

// MatchIngest is one fully parsed match ready for persistence: the match row
// plus its complete round and player-stat sets.
type MatchIngest struct {
	Match  match.Match
	Rounds []round.Round
	Stats  []playerstat.PlayerStat
}

// IngestionService validates parsed match data and writes it through the
// repositories. It is the only path from parser output to storage.
type IngestionService struct {
	matchRepo match.Repository
	roundRepo round.Repository
	statsRepo playerstat.Repository
}

func NewIngestionService(
	matchRepo match.Repository,
	roundRepo round.Repository,
	statsRepo playerstat.Repository,
) *IngestionService {
	return &IngestionService{
		matchRepo: matchRepo,
		roundRepo: roundRepo,
		statsRepo: statsRepo,
	}
}

// PersistMatch upserts one match with its rounds and player stats. Each table
// write is atomic and idempotent; re-invoking with identical data leaves the
// store unchanged.
func (s *IngestionService) PersistMatch(ctx context.Context, input MatchIngest) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.PersistMatch")
	defer span.End()

	input.Match.ID = strings.TrimSpace(input.Match.ID)
	input.Match.TeamID = strings.TrimSpace(input.Match.TeamID)
	if input.Match.ID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if input.Match.TeamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	for idx, item := range input.Rounds {
		if item.Number != idx+1 {
			return fmt.Errorf("%w: round numbers must be contiguous from 1, got %d at position %d", ErrInvalidInput, item.Number, idx)
		}
		input.Rounds[idx].MatchID = input.Match.ID
	}

	seen := make(map[string]struct{}, len(input.Stats))
	for idx, item := range input.Stats {
		playerID := strings.TrimSpace(item.PlayerID)
		if playerID == "" {
			return fmt.Errorf("%w: player id is required", ErrInvalidInput)
		}
		if _, dup := seen[playerID]; dup {
			return fmt.Errorf("%w: duplicate stat row for player %s", ErrInvalidInput, playerID)
		}
		seen[playerID] = struct{}{}
		input.Stats[idx].PlayerID = playerID
		input.Stats[idx].MatchID = input.Match.ID
	}

	if err := s.matchRepo.Upsert(ctx, input.Match); err != nil {
		return fmt.Errorf("%w: upsert match match_id=%s: %v", ErrStorage, input.Match.ID, err)
	}
	if err := s.roundRepo.UpsertByMatch(ctx, input.Match.ID, input.Rounds); err != nil {
		return fmt.Errorf("%w: upsert rounds match_id=%s: %v", ErrStorage, input.Match.ID, err)
	}
	if err := s.statsRepo.UpsertByMatch(ctx, input.Match.ID, input.Stats); err != nil {
		return fmt.Errorf("%w: upsert player stats match_id=%s: %v", ErrStorage, input.Match.ID, err)
	}
	return nil
}
