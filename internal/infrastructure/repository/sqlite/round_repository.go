package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scoutbase/scout/internal/domain/round"
	qb "github.com/scoutbase/scout/internal/platform/querybuilder"
)

type roundTableModel struct {
	MatchID     string `db:"match_id"`
	RoundNumber int    `db:"round_number"`
	WinningSide string `db:"winning_side"`
	WinType     string `db:"win_type"`
	TeamAEcon   string `db:"team_a_econ"`
	TeamBEcon   string `db:"team_b_econ"`
}

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// UpsertByMatch replaces the match's full round set in one transaction, so a
// re-ingest can never leave rows from an older parse behind.
func (r *RoundRepository) UpsertByMatch(ctx context.Context, matchID string, rounds []round.Round) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert rounds: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("rounds").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete rounds query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete rounds match_id=%s: %w", matchID, err)
	}

	for _, item := range rounds {
		insertModel := roundTableModel{
			MatchID:     matchID,
			RoundNumber: item.Number,
			WinningSide: item.WinningSide,
			WinType:     item.WinType,
			TeamAEcon:   item.TeamAEcon,
			TeamBEcon:   item.TeamBEcon,
		}
		query, args, err := qb.InsertModel("rounds", insertModel, "")
		if err != nil {
			return fmt.Errorf("build insert round query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert round match_id=%s number=%d: %w", matchID, item.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert rounds tx: %w", err)
	}
	return nil
}

func (r *RoundRepository) ListByMatch(ctx context.Context, matchID string) ([]round.Round, error) {
	query, args, err := qb.Select("*").From("rounds").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("round_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rounds query: %w", err)
	}

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rounds by match: %w", err)
	}

	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, round.Round{
			MatchID:     row.MatchID,
			Number:      row.RoundNumber,
			WinningSide: row.WinningSide,
			WinType:     row.WinType,
			TeamAEcon:   row.TeamAEcon,
			TeamBEcon:   row.TeamBEcon,
		})
	}
	return out, nil
}
