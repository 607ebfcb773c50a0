package playerstat

import "context"

// Repository exposes player-stat persistence and read operations.
// UpsertByMatch replaces the full stat set for one match atomically.
type Repository interface {
	UpsertByMatch(ctx context.Context, matchID string, stats []PlayerStat) error
	ListByMatch(ctx context.Context, matchID string) ([]PlayerStat, error)
}
