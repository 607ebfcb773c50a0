package usecase

import (
	"context"
	"sync"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/parser/valorant"
)

type fakeMatchRepo struct {
	mu        sync.Mutex
	items     map[string]match.Match
	upsertErr error
	getErr    error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{items: make(map[string]match.Match)}
}

func (r *fakeMatchRepo) Upsert(_ context.Context, item match.Match) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	if r.getErr != nil {
		return match.Match{}, false, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, found := r.items[matchID]
	return item, found, nil
}

func (r *fakeMatchRepo) ListByTeam(_ context.Context, teamID, opponentID string, limit int) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
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

func (r *fakeMatchRepo) DeleteByID(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, matchID)
	return nil
}

type fakeRoundRepo struct {
	mu        sync.Mutex
	items     map[string][]round.Round
	upsertErr error
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{items: make(map[string][]round.Round)}
}

func (r *fakeRoundRepo) UpsertByMatch(_ context.Context, matchID string, rounds []round.Round) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[matchID] = append([]round.Round(nil), rounds...)
	return nil
}

func (r *fakeRoundRepo) ListByMatch(_ context.Context, matchID string) ([]round.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]round.Round(nil), r.items[matchID]...), nil
}

type fakeStatsRepo struct {
	mu        sync.Mutex
	items     map[string][]playerstat.PlayerStat
	upsertErr error
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{items: make(map[string][]playerstat.PlayerStat)}
}

func (r *fakeStatsRepo) UpsertByMatch(_ context.Context, matchID string, stats []playerstat.PlayerStat) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[matchID] = append([]playerstat.PlayerStat(nil), stats...)
	return nil
}

func (r *fakeStatsRepo) ListByMatch(_ context.Context, matchID string) ([]playerstat.PlayerStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]playerstat.PlayerStat(nil), r.items[matchID]...), nil
}

type fakeProvider struct {
	listSeries       func(ctx context.Context, teamID string, limit int) ([]series.Series, error)
	getMatchDetails  func(ctx context.Context, matchID string) (ExternalMatchDetails, error)
	downloadArtifact func(ctx context.Context, artifactURL string) ([]byte, error)
}

func (p *fakeProvider) ListTeamSeries(ctx context.Context, teamID string, limit int) ([]series.Series, error) {
	return p.listSeries(ctx, teamID, limit)
}

func (p *fakeProvider) GetMatchDetails(ctx context.Context, matchID string) (ExternalMatchDetails, error) {
	return p.getMatchDetails(ctx, matchID)
}

func (p *fakeProvider) DownloadArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	return p.downloadArtifact(ctx, artifactURL)
}

type fakeParser struct {
	parse func(raw []byte) (valorant.MatchSummary, error)
}

func (p *fakeParser) Parse(raw []byte) (valorant.MatchSummary, error) {
	return p.parse(raw)
}
