package sqlite

import (
	"time"

	"github.com/scoutbase/scout/internal/domain/match"
)

type matchTableModel struct {
	MatchID    string     `db:"match_id"`
	TeamID     string     `db:"team_id"`
	OpponentID string     `db:"opponent_id"`
	MapName    string     `db:"map_name"`
	Score      string     `db:"score"`
	StartTime  *time.Time `db:"start_time"`
}

func matchFromRow(row matchTableModel) match.Match {
	out := match.Match{
		ID:         row.MatchID,
		TeamID:     row.TeamID,
		OpponentID: row.OpponentID,
		MapName:    row.MapName,
		Score:      row.Score,
	}
	if row.StartTime != nil {
		out.StartTime = row.StartTime.UTC()
	}
	return out
}

func matchToRow(item match.Match) matchTableModel {
	row := matchTableModel{
		MatchID:    item.ID,
		TeamID:     item.TeamID,
		OpponentID: item.OpponentID,
		MapName:    item.MapName,
		Score:      item.Score,
	}
	if !item.StartTime.IsZero() {
		startTime := item.StartTime.UTC()
		row.StartTime = &startTime
	}
	return row
}
