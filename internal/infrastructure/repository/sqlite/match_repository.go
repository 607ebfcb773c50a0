package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scoutbase/scout/internal/domain/match"
	qb "github.com/scoutbase/scout/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Upsert writes one match keyed on match id. Re-ingesting the same match
// overwrites the previous row, last writer wins.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	query, args, err := qb.InsertModel("matches", matchToRow(item), `ON CONFLICT (match_id)
DO UPDATE SET
    team_id = EXCLUDED.team_id,
    opponent_id = EXCLUDED.opponent_id,
    map_name = EXCLUDED.map_name,
    score = EXCLUDED.score,
    start_time = EXCLUDED.start_time`)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match match_id=%s: %w", item.ID, err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	return matchFromRow(row), true, nil
}

// ListByTeam returns the team's matches newest first. An empty opponentID
// lists matches against any opponent.
func (r *MatchRepository) ListByTeam(ctx context.Context, teamID, opponentID string, limit int) ([]match.Match, error) {
	conditions := []qb.Condition{qb.Eq("team_id", teamID)}
	if opponentID != "" {
		conditions = append(conditions, qb.Eq("opponent_id", opponentID))
	}

	builder := qb.Select("*").From("matches").
		Where(conditions...).
		OrderBy("start_time DESC", "match_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by team query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by team: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

// DeleteByID removes a match. Rounds and player stats cascade through the
// schema's foreign keys.
func (r *MatchRepository) DeleteByID(ctx context.Context, matchID string) error {
	query, args, err := qb.DeleteFrom("matches").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete match match_id=%s: %w", matchID, err)
	}
	return nil
}
