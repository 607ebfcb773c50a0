package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/parser/valorant"
	"github.com/scoutbase/scout/internal/platform/logging"
	"github.com/scoutbase/scout/internal/usecase"
)

type stubMatchRepo struct {
	matches []match.Match
}

func (r *stubMatchRepo) Upsert(_ context.Context, item match.Match) error {
	for idx, existing := range r.matches {
		if existing.ID == item.ID {
			r.matches[idx] = item
			return nil
		}
	}
	r.matches = append(r.matches, item)
	return nil
}

func (r *stubMatchRepo) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	for _, item := range r.matches {
		if item.ID == matchID {
			return item, true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *stubMatchRepo) ListByTeam(_ context.Context, teamID, opponentID string, limit int) ([]match.Match, error) {
	out := make([]match.Match, 0, len(r.matches))
	for _, item := range r.matches {
		if item.TeamID != teamID {
			continue
		}
		if opponentID != "" && item.OpponentID != opponentID {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubMatchRepo) DeleteByID(_ context.Context, matchID string) error {
	for idx, item := range r.matches {
		if item.ID == matchID {
			r.matches = append(r.matches[:idx], r.matches[idx+1:]...)
			return nil
		}
	}
	return nil
}

type stubRoundRepo struct {
	rounds map[string][]round.Round
}

func (r *stubRoundRepo) UpsertByMatch(_ context.Context, matchID string, rounds []round.Round) error {
	if r.rounds == nil {
		r.rounds = make(map[string][]round.Round)
	}
	r.rounds[matchID] = rounds
	return nil
}

func (r *stubRoundRepo) ListByMatch(_ context.Context, matchID string) ([]round.Round, error) {
	return r.rounds[matchID], nil
}

type stubStatsRepo struct {
	stats map[string][]playerstat.PlayerStat
}

func (r *stubStatsRepo) UpsertByMatch(_ context.Context, matchID string, stats []playerstat.PlayerStat) error {
	if r.stats == nil {
		r.stats = make(map[string][]playerstat.PlayerStat)
	}
	r.stats[matchID] = stats
	return nil
}

func (r *stubStatsRepo) ListByMatch(_ context.Context, matchID string) ([]playerstat.PlayerStat, error) {
	return r.stats[matchID], nil
}

type stubProvider struct{}

func (stubProvider) ListTeamSeries(context.Context, string, int) ([]series.Series, error) {
	return nil, nil
}

func (stubProvider) GetMatchDetails(context.Context, string) (usecase.ExternalMatchDetails, error) {
	return usecase.ExternalMatchDetails{}, nil
}

func (stubProvider) DownloadArtifact(context.Context, string) ([]byte, error) {
	return nil, nil
}

type stubParser struct{}

func (stubParser) Parse([]byte) (valorant.MatchSummary, error) {
	return valorant.MatchSummary{}, nil
}

func newTestRouter(t *testing.T, matchRepo *stubMatchRepo, roundRepo *stubRoundRepo, statsRepo *stubStatsRepo) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	scoutingSvc := usecase.NewScoutingService(matchRepo, roundRepo, statsRepo)
	ingestionSvc := usecase.NewIngestionService(matchRepo, roundRepo, statsRepo)
	syncSvc := usecase.NewScoutSyncService(stubProvider{}, stubParser{}, ingestionSvc, logger, usecase.ScoutSyncConfig{})

	return NewRouter(NewHandler(scoutingSvc, syncSvc, logger), logger)
}

func seededRouter(t *testing.T) http.Handler {
	t.Helper()

	matchRepo := &stubMatchRepo{matches: []match.Match{
		{ID: "m1", TeamID: "team-1", OpponentID: "team-2", MapName: "Ascent", Score: "13-7"},
		{ID: "m2", TeamID: "team-1", OpponentID: "team-3", MapName: "Bind", Score: "8-13"},
	}}
	roundRepo := &stubRoundRepo{rounds: map[string][]round.Round{
		"m1": {{MatchID: "m1", Number: 1, WinningSide: round.SideAttack, WinType: round.WinTypeDetonate, TeamAEcon: round.EconFull, TeamBEcon: round.EconEco}},
	}}
	statsRepo := &stubStatsRepo{stats: map[string][]playerstat.PlayerStat{
		"m1": {{MatchID: "m1", PlayerID: "p1", Kills: 21, Deaths: 13, Assists: 6, ADR: 148.9}},
	}}

	return newTestRouter(t, matchRepo, roundRepo, statsRepo)
}

func TestHealthz(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListMatchesEndpoint(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches?team_id=team-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []matchDTO `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "m1", body.Data[0].ID)
	assert.Equal(t, "13-7", body.Data[0].Score)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches?team_id=team-1&opponent_id=team-3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "m2", body.Data[0].ID)
}

func TestListMatchesEndpoint_Validation(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches?team_id=team-1&limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMatchRoundsEndpoint(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/m1/rounds", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []roundDTO `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, round.WinTypeDetonate, body.Data[0].WinType)
	assert.Equal(t, round.EconEco, body.Data[0].TeamBEcon)
}

func TestGetMatchRoundsEndpoint_NotFound(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/unknown/rounds", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMatchPlayerStatsEndpoint(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/m1/player-stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []playerStatDTO `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "p1", body.Data[0].PlayerID)
	assert.InDelta(t, 148.9, body.Data[0].ADR, 0.001)
}

func TestStartScoutRunEndpoint_Validation(t *testing.T) {
	router := seededRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing team id", `{"matchCount":5}`},
		{"unknown field", `{"teamId":"team-1","mode":"fast"}`},
		{"match count too large", `{"teamId":"team-1","matchCount":500}`},
		{"not json", `team-1`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/scout/runs", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStartScoutRunEndpoint_EmptyRun(t *testing.T) {
	router := seededRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/scout/runs", strings.NewReader(`{"teamId":"team-9"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data scoutRunReportDTO `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body.Data.State)
	assert.Zero(t, body.Data.Requested)
	assert.Empty(t, body.Data.Failures)
}
