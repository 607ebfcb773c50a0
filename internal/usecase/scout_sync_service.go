package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/parser/valorant"
	"github.com/scoutbase/scout/internal/platform/logging"
)

const (
	defaultScoutMatchCount  = 10
	defaultScoutWorkers     = 4
	defaultScoutCallTimeout = 30 * time.Second
)

// RunState tracks an ingestion run through its lifecycle.
type RunState string

const (
	RunStatePending            RunState = "pending"
	RunStateFetchingSeries     RunState = "fetching_series"
	RunStateFetchingMatches    RunState = "fetching_matches"
	RunStateParsingArtifacts   RunState = "parsing_artifacts"
	RunStatePersisting         RunState = "persisting"
	RunStateCompleted          RunState = "completed"
	RunStatePartiallyCompleted RunState = "partially_completed"
	RunStateFailed             RunState = "failed"
)

// Failure kinds reported per match in a run report.
const (
	FailureKindAuth      = "auth"
	FailureKindTransport = "transport"
	FailureKindNotFound  = "not_found"
	FailureKindMalformed = "malformed_telemetry"
	FailureKindStorage   = "storage"
	FailureKindCancelled = "cancelled"
	FailureKindProvider  = "provider"
)

type ScoutRequest struct {
	TeamID     string
	OpponentID string
	MatchCount int
}

type MatchFailure struct {
	MatchID string
	Kind    string
	Reason  string
}

// RunReport is the orchestrator's only output. A run always produces one,
// even under partial failure; failures are listed, never dropped.
type RunReport struct {
	State         RunState
	Requested     int
	Fetched       int
	Parsed        int
	Persisted     int
	Failed        int
	DroppedRounds int
	Failures      []MatchFailure
}

func (r *RunReport) recordFailure(matchID string, err error) {
	r.Failures = append(r.Failures, MatchFailure{
		MatchID: matchID,
		Kind:    classifyFailure(err),
		Reason:  err.Error(),
	})
	r.Failed = len(r.Failures)
}

// TelemetryParser is the parsing port; satisfied by the valorant parser.
type TelemetryParser interface {
	Parse(raw []byte) (valorant.MatchSummary, error)
}

type ScoutSyncConfig struct {
	Workers     int
	CallTimeout time.Duration
}

// ScoutSyncService coordinates provider, parser and storage for one scouting
// request: page recent series, fetch match details, download and parse each
// events artifact, then persist everything that survived.
type ScoutSyncService struct {
	provider    EsportsDataProvider
	parser      TelemetryParser
	ingestion   *IngestionService
	logger      *logging.Logger
	workers     int
	callTimeout time.Duration
}

func NewScoutSyncService(
	provider EsportsDataProvider,
	parser TelemetryParser,
	ingestion *IngestionService,
	logger *logging.Logger,
	cfg ScoutSyncConfig,
) *ScoutSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultScoutWorkers
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultScoutCallTimeout
	}

	return &ScoutSyncService{
		provider:    provider,
		parser:      parser,
		ingestion:   ingestion,
		logger:      logger,
		workers:     workers,
		callTimeout: callTimeout,
	}
}

type matchTask struct {
	matchID    string
	teamID     string
	opponentID string
	mapName    string
}

type matchOutcome struct {
	matchID       string
	fetched       bool
	parsed        bool
	droppedRounds int
	ingest        *MatchIngest
	err           error
}

// Run executes one scouting ingestion. The returned error is non-nil only
// for invalid input; every other failure is folded into the report.
func (s *ScoutSyncService) Run(ctx context.Context, req ScoutRequest) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoutSyncService.Run")
	defer span.End()

	report := RunReport{State: RunStatePending}

	req.TeamID = strings.TrimSpace(req.TeamID)
	req.OpponentID = strings.TrimSpace(req.OpponentID)
	if req.TeamID == "" {
		report.State = RunStateFailed
		return report, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if req.MatchCount <= 0 {
		req.MatchCount = defaultScoutMatchCount
	}

	report.State = RunStateFetchingSeries
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	seriesList, err := s.provider.ListTeamSeries(callCtx, req.TeamID, req.MatchCount)
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "scout run aborted fetching series", "team_id", req.TeamID, "error", err)
		report.State = RunStateFailed
		report.recordFailure("", err)
		return report, nil
	}

	tasks := buildMatchTasks(req, seriesList)
	report.Requested = len(tasks)
	if len(tasks) == 0 {
		report.State = RunStateCompleted
		return report, nil
	}

	report.State = RunStateFetchingMatches
	outcomes, err := s.collectMatches(ctx, tasks)
	if err != nil {
		report.State = RunStateFailed
		report.recordFailure("", err)
		return report, nil
	}
	report.State = RunStateParsingArtifacts

	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].matchID < outcomes[j].matchID })

	authAborted := false
	for _, outcome := range outcomes {
		if outcome.fetched {
			report.Fetched++
		}
		if outcome.parsed {
			report.Parsed++
		}
		report.DroppedRounds += outcome.droppedRounds
		if outcome.err != nil {
			report.recordFailure(outcome.matchID, outcome.err)
			if errors.Is(outcome.err, ErrAuthentication) {
				authAborted = true
			}
		}
	}
	if authAborted {
		s.logger.ErrorContext(ctx, "scout run aborted on authentication failure", "team_id", req.TeamID)
		report.State = RunStateFailed
		return report, nil
	}

	report.State = RunStatePersisting
	cancelled := false
	for _, outcome := range outcomes {
		if outcome.ingest == nil {
			continue
		}
		if ctx.Err() != nil {
			cancelled = true
			report.recordFailure(outcome.matchID, fmt.Errorf("%w: persistence skipped", ErrRunCancelled))
			continue
		}
		if err := s.ingestion.PersistMatch(ctx, *outcome.ingest); err != nil {
			s.logger.ErrorContext(ctx, "persist match failed", "match_id", outcome.matchID, "error", err)
			report.recordFailure(outcome.matchID, err)
			continue
		}
		report.Persisted++
	}

	switch {
	case cancelled:
		report.State = RunStateFailed
	case report.Failed == 0:
		report.State = RunStateCompleted
	case report.Persisted > 0:
		report.State = RunStatePartiallyCompleted
	default:
		report.State = RunStateFailed
	}

	s.logger.InfoContext(ctx, "scout run finished",
		"team_id", req.TeamID,
		"state", string(report.State),
		"requested", report.Requested,
		"fetched", report.Fetched,
		"parsed", report.Parsed,
		"persisted", report.Persisted,
		"failed", report.Failed,
	)
	return report, nil
}

// buildMatchTasks flattens series into per-match work items, newest series
// first, honoring the opponent filter and the requested match count.
func buildMatchTasks(req ScoutRequest, seriesList []series.Series) []matchTask {
	tasks := make([]matchTask, 0, req.MatchCount)
	seen := make(map[string]struct{}, req.MatchCount)

	for _, item := range seriesList {
		if !item.Involves(req.TeamID) {
			continue
		}
		if req.OpponentID != "" && !item.Involves(req.OpponentID) {
			continue
		}

		opponentID := req.OpponentID
		if opponentID == "" {
			for _, team := range item.Teams {
				if team.ID != req.TeamID {
					opponentID = team.ID
					break
				}
			}
		}

		for _, ref := range item.Matches {
			if _, dup := seen[ref.ID]; dup {
				continue
			}
			seen[ref.ID] = struct{}{}
			tasks = append(tasks, matchTask{
				matchID:    ref.ID,
				teamID:     req.TeamID,
				opponentID: opponentID,
				mapName:    ref.MapName,
			})
			if len(tasks) >= req.MatchCount {
				return tasks
			}
		}
	}
	return tasks
}

// collectMatches runs fetch+parse for every task on a bounded worker pool.
// Cancellation is honored between matches: tasks not yet started when the
// context dies come back as cancelled outcomes.
func (s *ScoutSyncService) collectMatches(ctx context.Context, tasks []matchTask) ([]matchOutcome, error) {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan matchOutcome, len(tasks))
	var authAbort atomic.Bool
	var workers sync.WaitGroup

	for _, task := range tasks {
		task := task
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if ctx.Err() != nil {
				results <- matchOutcome{matchID: task.matchID, err: fmt.Errorf("%w: run cancelled before match", ErrRunCancelled)}
				return
			}
			if authAbort.Load() {
				results <- matchOutcome{matchID: task.matchID, err: fmt.Errorf("%w: run aborted", ErrAuthentication)}
				return
			}

			outcome := s.processMatch(ctx, task)
			if errors.Is(outcome.err, ErrAuthentication) {
				authAbort.Store(true)
			}
			results <- outcome
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit match to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	outcomes := make([]matchOutcome, 0, len(tasks))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *ScoutSyncService) processMatch(ctx context.Context, task matchTask) matchOutcome {
	outcome := matchOutcome{matchID: task.matchID}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	details, err := s.provider.GetMatchDetails(callCtx, task.matchID)
	cancel()
	if err != nil {
		outcome.err = s.runError(ctx, err)
		return outcome
	}

	artifact, ok := details.EventsArtifact()
	if !ok {
		outcome.err = fmt.Errorf("%w: no events artifact published", ErrNotFound)
		return outcome
	}

	callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
	raw, err := s.provider.DownloadArtifact(callCtx, artifact.URL)
	cancel()
	if err != nil {
		outcome.err = s.runError(ctx, err)
		return outcome
	}
	outcome.fetched = true

	summary, err := s.parser.Parse(raw)
	if err != nil {
		outcome.err = fmt.Errorf("%w: %v", ErrMalformedTelemetry, err)
		return outcome
	}
	if summary.MatchID != task.matchID {
		outcome.err = fmt.Errorf("%w: artifact reports match %s", ErrMalformedTelemetry, summary.MatchID)
		return outcome
	}
	outcome.parsed = true
	outcome.droppedRounds = len(summary.RoundErrors)

	for _, roundErr := range summary.RoundErrors {
		s.logger.WarnContext(ctx, "dropped round without terminal event",
			"match_id", task.matchID,
			"round", roundErr.Round,
			"reason", roundErr.Reason,
		)
	}

	outcome.ingest = &MatchIngest{
		Match: match.Match{
			ID:         summary.MatchID,
			TeamID:     task.teamID,
			OpponentID: task.opponentID,
			MapName:    summary.MapName,
			Score:      orientScore(summary, task.teamID),
			StartTime:  details.StartTime,
		},
		Rounds: summary.Rounds,
		Stats:  summary.Players,
	}
	return outcome
}

// runError distinguishes an externally cancelled run from a per-call timeout:
// the former fails the run as cancelled, the latter is a transport failure
// for that match only.
func (s *ScoutSyncService) runError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrRunCancelled, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: provider call timed out", ErrTransport)
	}
	return err
}

// orientScore flips the parser's score so the stored match reads scouted
// team first.
func orientScore(summary valorant.MatchSummary, teamID string) string {
	if teamID != summary.TeamBID {
		return summary.Score
	}
	parts := strings.SplitN(summary.Score, "-", 2)
	if len(parts) != 2 {
		return summary.Score
	}
	return parts[1] + "-" + parts[0]
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return FailureKindAuth
	case errors.Is(err, ErrMalformedTelemetry):
		return FailureKindMalformed
	case errors.Is(err, ErrNotFound):
		return FailureKindNotFound
	case errors.Is(err, ErrStorage):
		return FailureKindStorage
	case errors.Is(err, ErrRunCancelled):
		return FailureKindCancelled
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return FailureKindTransport
	default:
		return FailureKindProvider
	}
}
