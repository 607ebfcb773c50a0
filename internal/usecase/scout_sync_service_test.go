package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/parser/valorant"
)

const (
	scoutedTeam  = "team-1"
	opponentTeam = "team-2"
)

func seriesFixture(id string, matchIDs ...string) series.Series {
	refs := make([]series.MatchRef, 0, len(matchIDs))
	for _, matchID := range matchIDs {
		refs = append(refs, series.MatchRef{ID: matchID, MapName: "Ascent"})
	}
	return series.Series{
		ID: id,
		Teams: []series.Team{
			{ID: scoutedTeam, Name: "Alpha"},
			{ID: opponentTeam, Name: "Bravo"},
		},
		Matches: refs,
	}
}

func summaryFixture(matchID string) valorant.MatchSummary {
	return valorant.MatchSummary{
		MatchID: matchID,
		MapName: "Ascent",
		TeamAID: scoutedTeam,
		TeamBID: opponentTeam,
		Score:   "13-7",
		Rounds: []round.Round{
			{Number: 1, WinningSide: round.SideAttack, WinType: round.WinTypeElimination, TeamAEcon: round.EconEco, TeamBEcon: round.EconFull},
		},
		Players: []playerstat.PlayerStat{
			{PlayerID: "p1", Kills: 14, Deaths: 9, Assists: 3, ADR: 142.1},
		},
	}
}

type syncHarness struct {
	service   *ScoutSyncService
	matches   *fakeMatchRepo
	rounds    *fakeRoundRepo
	stats     *fakeStatsRepo
	provider  *fakeProvider
	parser    *fakeParser
	ingestion *IngestionService
}

func newSyncHarness(seriesList []series.Series) *syncHarness {
	h := &syncHarness{
		matches: newFakeMatchRepo(),
		rounds:  newFakeRoundRepo(),
		stats:   newFakeStatsRepo(),
	}
	h.provider = &fakeProvider{
		listSeries: func(context.Context, string, int) ([]series.Series, error) {
			return seriesList, nil
		},
		getMatchDetails: func(_ context.Context, matchID string) (ExternalMatchDetails, error) {
			return ExternalMatchDetails{
				ID:      matchID,
				MapName: "Ascent",
				Artifacts: []match.Artifact{
					{ID: "a-" + matchID, Type: match.ArtifactTypeEvents, URL: "https://cdn.example/" + matchID + ".json"},
				},
			}, nil
		},
		downloadArtifact: func(_ context.Context, artifactURL string) ([]byte, error) {
			return []byte(artifactURL), nil
		},
	}
	h.parser = &fakeParser{
		parse: func(raw []byte) (valorant.MatchSummary, error) {
			url := string(raw)
			matchID := strings.TrimSuffix(url[strings.LastIndex(url, "/")+1:], ".json")
			return summaryFixture(matchID), nil
		},
	}
	h.ingestion = NewIngestionService(h.matches, h.rounds, h.stats)
	h.service = NewScoutSyncService(h.provider, h.parser, h.ingestion, nil, ScoutSyncConfig{Workers: 2})
	return h
}

func TestRunCompletes(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2")})

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam, MatchCount: 5})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.State != RunStateCompleted {
		t.Fatalf("state = %s, want completed", report.State)
	}
	if report.Requested != 2 || report.Fetched != 2 || report.Parsed != 2 || report.Persisted != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}

	stored, found, err := h.matches.GetByID(context.Background(), "m1")
	if err != nil || !found {
		t.Fatalf("match m1 not stored: %v", err)
	}
	if stored.TeamID != scoutedTeam || stored.OpponentID != opponentTeam {
		t.Fatalf("stored match = %+v", stored)
	}
	if stored.Score != "13-7" {
		t.Fatalf("score = %q", stored.Score)
	}

	rounds, _ := h.rounds.ListByMatch(context.Background(), "m1")
	if len(rounds) != 1 || rounds[0].MatchID != "m1" {
		t.Fatalf("rounds = %+v", rounds)
	}
	stats, _ := h.stats.ListByMatch(context.Background(), "m1")
	if len(stats) != 1 || stats[0].MatchID != "m1" {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRunScoreOrientedToScoutedTeam(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1")})
	h.parser.parse = func([]byte) (valorant.MatchSummary, error) {
		summary := summaryFixture("m1")
		summary.TeamAID = opponentTeam
		summary.TeamBID = scoutedTeam
		summary.Score = "7-13"
		return summary, nil
	}

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.State != RunStateCompleted {
		t.Fatalf("state = %s", report.State)
	}

	stored, _, _ := h.matches.GetByID(context.Background(), "m1")
	if stored.Score != "13-7" {
		t.Fatalf("score = %q, want flipped 13-7", stored.Score)
	}
}

func TestRunPartialCompletionOnDownloadFailure(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2", "m3", "m4", "m5")})
	h.provider.downloadArtifact = func(_ context.Context, artifactURL string) ([]byte, error) {
		if strings.Contains(artifactURL, "m3") {
			return nil, fmt.Errorf("%w: connection reset", ErrTransport)
		}
		return []byte(artifactURL), nil
	}

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam, MatchCount: 5})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.State != RunStatePartiallyCompleted {
		t.Fatalf("state = %s, want partially_completed", report.State)
	}
	if report.Persisted != 4 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	failure := report.Failures[0]
	if failure.MatchID != "m3" || failure.Kind != FailureKindTransport {
		t.Fatalf("failure = %+v", failure)
	}
}

func TestRunFailsOnSeriesAuthError(t *testing.T) {
	t.Parallel()

	h := newSyncHarness(nil)
	h.provider.listSeries = func(context.Context, string, int) ([]series.Series, error) {
		return nil, fmt.Errorf("%w: key rejected", ErrAuthentication)
	}

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.State != RunStateFailed {
		t.Fatalf("state = %s, want failed", report.State)
	}
	if len(report.Failures) != 1 || report.Failures[0].Kind != FailureKindAuth {
		t.Fatalf("failures = %+v", report.Failures)
	}
}

func TestRunAbortsOnMatchAuthError(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2")})
	h.service = NewScoutSyncService(h.provider, h.parser, h.ingestion, nil, ScoutSyncConfig{Workers: 1})
	h.provider.getMatchDetails = func(_ context.Context, matchID string) (ExternalMatchDetails, error) {
		return ExternalMatchDetails{}, fmt.Errorf("%w: key expired", ErrAuthentication)
	}

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.State != RunStateFailed {
		t.Fatalf("state = %s, want failed", report.State)
	}
	if report.Persisted != 0 {
		t.Fatalf("persisted = %d, want 0 after auth abort", report.Persisted)
	}
}

func TestRunRecordsMalformedTelemetry(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2")})
	h.parser.parse = func(raw []byte) (valorant.MatchSummary, error) {
		if strings.Contains(string(raw), "m1") {
			return valorant.MatchSummary{}, &valorant.MalformedError{MatchID: "m1", Field: "events[3].timestamp", Reason: "non-monotonic"}
		}
		return summaryFixture("m2"), nil
	}

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.State != RunStatePartiallyCompleted {
		t.Fatalf("state = %s, want partially_completed", report.State)
	}
	if report.Fetched != 2 || report.Parsed != 1 || report.Persisted != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failures[0].Kind != FailureKindMalformed {
		t.Fatalf("failure kind = %s, want malformed_telemetry", report.Failures[0].Kind)
	}
}

func TestRunHonorsOpponentFilter(t *testing.T) {
	t.Parallel()

	other := series.Series{
		ID: "s-other",
		Teams: []series.Team{
			{ID: scoutedTeam, Name: "Alpha"},
			{ID: "team-3", Name: "Charlie"},
		},
		Matches: []series.MatchRef{{ID: "m-skip", MapName: "Bind"}},
	}
	h := newSyncHarness([]series.Series{other, seriesFixture("s1", "m1")})

	report, err := h.service.Run(context.Background(), ScoutRequest{
		TeamID:     scoutedTeam,
		OpponentID: opponentTeam,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Requested != 1 {
		t.Fatalf("requested = %d, want opponent filter to skip s-other", report.Requested)
	}
	if _, found, _ := h.matches.GetByID(context.Background(), "m-skip"); found {
		t.Fatal("match from filtered series was persisted")
	}
}

func TestRunCapsAtMatchCount(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2", "m3", "m4")})

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam, MatchCount: 2})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Requested != 2 || report.Persisted != 2 {
		t.Fatalf("report = %+v, want cap at 2", report)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1", "m2")})

	ctx, cancel := context.WithCancel(context.Background())
	h.provider.getMatchDetails = func(_ context.Context, matchID string) (ExternalMatchDetails, error) {
		cancel()
		return ExternalMatchDetails{}, ctx.Err()
	}

	report, err := h.service.Run(ctx, ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.State != RunStateFailed {
		t.Fatalf("state = %s, want failed on cancellation", report.State)
	}
	foundCancelled := false
	for _, failure := range report.Failures {
		if failure.Kind == FailureKindCancelled {
			foundCancelled = true
		}
	}
	if !foundCancelled {
		t.Fatalf("failures = %+v, want a cancelled entry", report.Failures)
	}
}

func TestRunRequiresTeamID(t *testing.T) {
	t.Parallel()

	h := newSyncHarness(nil)

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Run() error = %v, want ErrInvalidInput", err)
	}
	if report.State != RunStateFailed {
		t.Fatalf("state = %s, want failed", report.State)
	}
}

func TestRunStorageFailureIsRecordedPerMatch(t *testing.T) {
	t.Parallel()

	h := newSyncHarness([]series.Series{seriesFixture("s1", "m1")})
	h.rounds.upsertErr = errors.New("disk full")

	report, err := h.service.Run(context.Background(), ScoutRequest{TeamID: scoutedTeam})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.State != RunStateFailed {
		t.Fatalf("state = %s, want failed with zero persisted", report.State)
	}
	if report.Failures[0].Kind != FailureKindStorage {
		t.Fatalf("failure kind = %s, want storage", report.Failures[0].Kind)
	}
}
