package round

import "context"

// Repository exposes round persistence and read operations. UpsertByMatch
// replaces the full round set for one match atomically.
type Repository interface {
	UpsertByMatch(ctx context.Context, matchID string, rounds []Round) error
	ListByMatch(ctx context.Context, matchID string) ([]Round, error)
}
