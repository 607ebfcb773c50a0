package match

import "context"

// Repository exposes match persistence and read operations.
type Repository interface {
	Upsert(ctx context.Context, item Match) error
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByTeam(ctx context.Context, teamID, opponentID string, limit int) ([]Match, error)
	DeleteByID(ctx context.Context, matchID string) error
}
