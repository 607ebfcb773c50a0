package valorant

import (
	"fmt"

	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
)

// MalformedError reports an artifact the parser refused to process. It names
// the first offending field so the caller can log and skip the match.
type MalformedError struct {
	MatchID string
	Field   string
	Reason  string
}

func (e *MalformedError) Error() string {
	if e.MatchID == "" {
		return fmt.Sprintf("malformed telemetry: field=%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed telemetry match_id=%s: field=%s: %s", e.MatchID, e.Field, e.Reason)
}

func malformed(matchID, field, format string, args ...any) error {
	return &MalformedError{
		MatchID: matchID,
		Field:   field,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// RoundError is a recoverable per-round failure. The round is dropped, the
// rest of the match is still processed.
type RoundError struct {
	Round  int
	Reason string
}

// MatchSummary is the parser's normalized output for one artifact. Round
// numbers are renumbered 1..N over the rounds that survived classification;
// dropped rounds are reported in RoundErrors by their original ordinal.
type MatchSummary struct {
	MatchID     string
	MapName     string
	TeamAID     string
	TeamBID     string
	Score       string
	Rounds      []round.Round
	Players     []playerstat.PlayerStat
	RoundErrors []RoundError
}

const (
	eventRoundStart       = "round_start"
	eventRoundEnd         = "round_end"
	eventDamage           = "damage"
	eventKill             = "kill"
	eventSpikePlant       = "spike_plant"
	eventSpikeDefuse      = "spike_defuse"
	eventSpikeDetonate    = "spike_detonate"
	eventRoundTimerExpire = "round_timer_expire"
)

type rawTelemetry struct {
	MatchID string      `json:"matchId"`
	MapName string      `json:"mapName"`
	Players []rawPlayer `json:"players"`
	Events  []rawEvent  `json:"events"`
}

type rawPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"teamId"`
}

type rawLoadout struct {
	TeamID string `json:"teamId"`
	Side   string `json:"side"`
	Value  int    `json:"value"`
}

type rawEvent struct {
	Type      string       `json:"type"`
	Timestamp int64        `json:"timestamp"`
	Loadouts  []rawLoadout `json:"loadouts,omitempty"`

	AttackerID string  `json:"attackerId,omitempty"`
	VictimID   string  `json:"victimId,omitempty"`
	Amount     float64 `json:"amount,omitempty"`

	KillerID  string   `json:"killerId,omitempty"`
	AssistIDs []string `json:"assistIds,omitempty"`
}
