package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
	"github.com/scoutbase/scout/internal/usecase"
)

type matchDTO struct {
	ID         string `json:"id"`
	TeamID     string `json:"teamId"`
	OpponentID string `json:"opponentId"`
	MapName    string `json:"mapName"`
	Score      string `json:"score"`
	StartTime  string `json:"startTime,omitempty"`
}

type roundDTO struct {
	Number      int    `json:"number"`
	WinningSide string `json:"winningSide"`
	WinType     string `json:"winType"`
	TeamAEcon   string `json:"teamAEcon"`
	TeamBEcon   string `json:"teamBEcon"`
}

type playerStatDTO struct {
	PlayerID string  `json:"playerId"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	Assists  int     `json:"assists"`
	ADR      float64 `json:"adr"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	opponentID := strings.TrimSpace(r.URL.Query().Get("opponent_id"))

	limit := 0
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	matches, err := h.scoutingService.ListMatches(ctx, teamID, opponentID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatchRounds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchRounds")
	defer span.End()

	matchID := r.PathValue("matchID")
	rounds, err := h.scoutingService.GetMatchRounds(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match rounds failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]roundDTO, 0, len(rounds))
	for _, item := range rounds {
		items = append(items, roundToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatchPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchPlayerStats")
	defer span.End()

	matchID := r.PathValue("matchID")
	stats, err := h.scoutingService.GetMatchPlayerStats(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match player stats failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerStatDTO, 0, len(stats))
	for _, item := range stats {
		items = append(items, playerStatToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func matchToDTO(ctx context.Context, v match.Match) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	startTime := ""
	if !v.StartTime.IsZero() {
		startTime = v.StartTime.UTC().Format(time.RFC3339)
	}

	return matchDTO{
		ID:         v.ID,
		TeamID:     v.TeamID,
		OpponentID: v.OpponentID,
		MapName:    v.MapName,
		Score:      v.Score,
		StartTime:  startTime,
	}
}

func roundToDTO(ctx context.Context, v round.Round) roundDTO {
	ctx, span := startSpan(ctx, "httpapi.roundToDTO")
	defer span.End()

	return roundDTO{
		Number:      v.Number,
		WinningSide: v.WinningSide,
		WinType:     v.WinType,
		TeamAEcon:   v.TeamAEcon,
		TeamBEcon:   v.TeamBEcon,
	}
}

func playerStatToDTO(ctx context.Context, v playerstat.PlayerStat) playerStatDTO {
	ctx, span := startSpan(ctx, "httpapi.playerStatToDTO")
	defer span.End()

	return playerStatDTO{
		PlayerID: v.PlayerID,
		Kills:    v.Kills,
		Deaths:   v.Deaths,
		Assists:  v.Assists,
		ADR:      v.ADR,
	}
}
