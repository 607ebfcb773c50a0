package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scoutbase/scout/internal/domain/playerstat"
	qb "github.com/scoutbase/scout/internal/platform/querybuilder"
)

type playerStatTableModel struct {
	MatchID  string  `db:"match_id"`
	PlayerID string  `db:"player_id"`
	Kills    int     `db:"kills"`
	Deaths   int     `db:"deaths"`
	Assists  int     `db:"assists"`
	ADR      float64 `db:"adr"`
}

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// UpsertByMatch replaces the match's full stat set in one transaction.
func (r *PlayerStatsRepository) UpsertByMatch(ctx context.Context, matchID string, stats []playerstat.PlayerStat) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert player stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("player_stats").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete player stats query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete player stats match_id=%s: %w", matchID, err)
	}

	for _, item := range stats {
		insertModel := playerStatTableModel{
			MatchID:  matchID,
			PlayerID: item.PlayerID,
			Kills:    item.Kills,
			Deaths:   item.Deaths,
			Assists:  item.Assists,
			ADR:      item.ADR,
		}
		query, args, err := qb.InsertModel("player_stats", insertModel, "")
		if err != nil {
			return fmt.Errorf("build insert player stat query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert player stat match_id=%s player_id=%s: %w", matchID, item.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert player stats tx: %w", err)
	}
	return nil
}

func (r *PlayerStatsRepository) ListByMatch(ctx context.Context, matchID string) ([]playerstat.PlayerStat, error) {
	query, args, err := qb.Select("*").From("player_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player stats query: %w", err)
	}

	var rows []playerStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player stats by match: %w", err)
	}

	out := make([]playerstat.PlayerStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerstat.PlayerStat{
			MatchID:  row.MatchID,
			PlayerID: row.PlayerID,
			Kills:    row.Kills,
			Deaths:   row.Deaths,
			Assists:  row.Assists,
			ADR:      row.ADR,
		})
	}
	return out, nil
}
