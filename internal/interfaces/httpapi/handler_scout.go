package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/scoutbase/scout/internal/usecase"
)

type startScoutRunRequest struct {
	TeamID     string `json:"teamId" validate:"required"`
	OpponentID string `json:"opponentId"`
	MatchCount int    `json:"matchCount" validate:"omitempty,min=1,max=50"`
}

type scoutRunReportDTO struct {
	State         string               `json:"state"`
	Requested     int                  `json:"requested"`
	Fetched       int                  `json:"fetched"`
	Parsed        int                  `json:"parsed"`
	Persisted     int                  `json:"persisted"`
	Failed        int                  `json:"failed"`
	DroppedRounds int                  `json:"droppedRounds"`
	Failures      []scoutRunFailureDTO `json:"failures"`
}

type scoutRunFailureDTO struct {
	MatchID string `json:"matchId"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
}

func (h *Handler) StartScoutRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartScoutRun")
	defer span.End()

	var req startScoutRunRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.syncService.Run(ctx, usecase.ScoutRequest{
		TeamID:     req.TeamID,
		OpponentID: req.OpponentID,
		MatchCount: req.MatchCount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "scout run rejected", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runReportToDTO(ctx, report))
}

func runReportToDTO(ctx context.Context, report usecase.RunReport) scoutRunReportDTO {
	ctx, span := startSpan(ctx, "httpapi.runReportToDTO")
	defer span.End()

	failures := make([]scoutRunFailureDTO, 0, len(report.Failures))
	for _, failure := range report.Failures {
		failures = append(failures, scoutRunFailureDTO{
			MatchID: failure.MatchID,
			Kind:    failure.Kind,
			Reason:  failure.Reason,
		})
	}

	return scoutRunReportDTO{
		State:         string(report.State),
		Requested:     report.Requested,
		Fetched:       report.Fetched,
		Parsed:        report.Parsed,
		Persisted:     report.Persisted,
		Failed:        report.Failed,
		DroppedRounds: report.DroppedRounds,
		Failures:      failures,
	}
}
