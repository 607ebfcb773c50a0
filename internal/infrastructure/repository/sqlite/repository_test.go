package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "scout.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	return db
}

func testMatch(id string) match.Match {
	return match.Match{
		ID:         id,
		TeamID:     "team-1",
		OpponentID: "team-2",
		MapName:    "Ascent",
		Score:      "13-7",
		StartTime:  time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestMatchUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	item := testMatch("match-1")
	if err := repo.Upsert(ctx, item); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	item.Score = "13-11"
	if err := repo.Upsert(ctx, item); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := Query(ctx, db, "SELECT COUNT(1) AS n FROM matches WHERE match_id = ?", "match-1")
	if err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if n := rows[0]["n"].(int64); n != 1 {
		t.Fatalf("match rows = %d, want 1", n)
	}

	got, found, err := repo.GetByID(ctx, "match-1")
	if err != nil || !found {
		t.Fatalf("GetByID() = %v found=%v", err, found)
	}
	if got.Score != "13-11" {
		t.Fatalf("score = %q, want second write to win", got.Score)
	}
	if !got.StartTime.Equal(item.StartTime) {
		t.Fatalf("start time = %v, want %v", got.StartTime, item.StartTime)
	}
}

func TestMatchGetByIDMissing(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(newTestDB(t))

	_, found, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if found {
		t.Fatal("found = true for missing match")
	}
}

func TestMatchListByTeamFiltersAndOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []match.Match{
		{ID: "m-old", TeamID: "team-1", OpponentID: "team-2", MapName: "Bind", StartTime: base},
		{ID: "m-new", TeamID: "team-1", OpponentID: "team-2", MapName: "Haven", StartTime: base.Add(48 * time.Hour)},
		{ID: "m-other-opponent", TeamID: "team-1", OpponentID: "team-3", MapName: "Split", StartTime: base.Add(24 * time.Hour)},
		{ID: "m-other-team", TeamID: "team-9", OpponentID: "team-2", MapName: "Lotus", StartTime: base},
	}
	for _, item := range fixtures {
		if err := repo.Upsert(ctx, item); err != nil {
			t.Fatalf("upsert %s: %v", item.ID, err)
		}
	}

	all, err := repo.ListByTeam(ctx, "team-1", "", 0)
	if err != nil {
		t.Fatalf("ListByTeam() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("matches = %d, want 3", len(all))
	}
	if all[0].ID != "m-new" {
		t.Fatalf("first match = %s, want newest first", all[0].ID)
	}

	versus, err := repo.ListByTeam(ctx, "team-1", "team-2", 0)
	if err != nil {
		t.Fatalf("ListByTeam() with opponent error: %v", err)
	}
	if len(versus) != 2 {
		t.Fatalf("opponent-filtered matches = %d, want 2", len(versus))
	}

	limited, err := repo.ListByTeam(ctx, "team-1", "", 1)
	if err != nil {
		t.Fatalf("ListByTeam() with limit error: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "m-new" {
		t.Fatalf("limited result = %+v", limited)
	}
}

func TestRoundUpsertReplacesSet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := NewMatchRepository(db).Upsert(ctx, testMatch("match-1")); err != nil {
		t.Fatalf("upsert match: %v", err)
	}

	repo := NewRoundRepository(db)
	first := []round.Round{
		{Number: 1, WinningSide: round.SideAttack, WinType: round.WinTypeElimination, TeamAEcon: round.EconEco, TeamBEcon: round.EconFull},
		{Number: 2, WinningSide: round.SideDefense, WinType: round.WinTypeDefuse, TeamAEcon: round.EconFull, TeamBEcon: round.EconForce},
		{Number: 3, WinningSide: round.SideAttack, WinType: round.WinTypeDetonate, TeamAEcon: round.EconFull, TeamBEcon: round.EconFull},
	}
	if err := repo.UpsertByMatch(ctx, "match-1", first); err != nil {
		t.Fatalf("first upsert rounds: %v", err)
	}

	second := first[:2]
	if err := repo.UpsertByMatch(ctx, "match-1", second); err != nil {
		t.Fatalf("second upsert rounds: %v", err)
	}

	got, err := repo.ListByMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("ListByMatch() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rounds = %d, want replacement set of 2", len(got))
	}
	if got[0].Number != 1 || got[1].Number != 2 {
		t.Fatalf("round numbers = %d,%d", got[0].Number, got[1].Number)
	}
	if got[0].MatchID != "match-1" {
		t.Fatalf("round match id = %q", got[0].MatchID)
	}
}

func TestPlayerStatsUpsertReplacesSet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := NewMatchRepository(db).Upsert(ctx, testMatch("match-1")); err != nil {
		t.Fatalf("upsert match: %v", err)
	}

	repo := NewPlayerStatsRepository(db)
	stats := []playerstat.PlayerStat{
		{PlayerID: "p1", Kills: 20, Deaths: 12, Assists: 4, ADR: 156.5},
		{PlayerID: "p2", Kills: 11, Deaths: 15, Assists: 9, ADR: 98.25},
	}
	if err := repo.UpsertByMatch(ctx, "match-1", stats); err != nil {
		t.Fatalf("first upsert stats: %v", err)
	}

	stats[0].Kills = 21
	if err := repo.UpsertByMatch(ctx, "match-1", stats); err != nil {
		t.Fatalf("second upsert stats: %v", err)
	}

	got, err := repo.ListByMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("ListByMatch() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stat rows = %d, want 2", len(got))
	}
	if got[0].PlayerID != "p1" || got[0].Kills != 21 {
		t.Fatalf("p1 row = %+v, want updated kills", got[0])
	}
	if got[1].ADR != 98.25 {
		t.Fatalf("p2 ADR = %v", got[1].ADR)
	}
}

func TestDeleteMatchCascades(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	matches := NewMatchRepository(db)
	rounds := NewRoundRepository(db)
	stats := NewPlayerStatsRepository(db)

	if err := matches.Upsert(ctx, testMatch("match-1")); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if err := rounds.UpsertByMatch(ctx, "match-1", []round.Round{
		{Number: 1, WinningSide: round.SideAttack, WinType: round.WinTypeElimination, TeamAEcon: round.EconFull, TeamBEcon: round.EconFull},
	}); err != nil {
		t.Fatalf("upsert rounds: %v", err)
	}
	if err := stats.UpsertByMatch(ctx, "match-1", []playerstat.PlayerStat{
		{PlayerID: "p1", Kills: 5},
	}); err != nil {
		t.Fatalf("upsert stats: %v", err)
	}

	if err := matches.DeleteByID(ctx, "match-1"); err != nil {
		t.Fatalf("DeleteByID() error: %v", err)
	}

	leftRounds, err := rounds.ListByMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if len(leftRounds) != 0 {
		t.Fatalf("rounds after delete = %d, want 0", len(leftRounds))
	}

	leftStats, err := stats.ListByMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("list stats: %v", err)
	}
	if len(leftStats) != 0 {
		t.Fatalf("stats after delete = %d, want 0", len(leftStats))
	}
}

func TestQueryRejectsWrites(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	if _, err := Query(context.Background(), db, "DELETE FROM matches"); err == nil {
		t.Fatal("Query() accepted a write statement")
	}
}
