// Package valorant normalizes raw match telemetry artifacts into round and
// player-stat rows. Parsing is deterministic: the same artifact bytes always
// produce the same summary.
package valorant

import (
	"fmt"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/scoutbase/scout/internal/domain/playerstat"
	"github.com/scoutbase/scout/internal/domain/round"
)

type Parser struct {
	thresholds EconomyThresholds
}

func NewParser(thresholds EconomyThresholds) *Parser {
	return &Parser{thresholds: thresholds.normalize()}
}

// Parse transforms one decoded artifact payload into a MatchSummary.
//
// Rounds are segmented on round_start markers and classified from their
// terminal event. Spike terminals beat elimination on the same tick:
// elimination is only evaluated among kills strictly before the spike
// terminal. A round with no terminal before the next round_start is dropped
// and reported as a recoverable RoundError; surviving rounds are renumbered
// contiguously from 1.
func (p *Parser) Parse(raw []byte) (MatchSummary, error) {
	var telemetry rawTelemetry
	if err := sonic.Unmarshal(raw, &telemetry); err != nil {
		return MatchSummary{}, malformed("", "body", "decode artifact: %v", err)
	}

	matchID := strings.TrimSpace(telemetry.MatchID)
	if matchID == "" {
		return MatchSummary{}, malformed("", "matchId", "missing match id")
	}
	if strings.TrimSpace(telemetry.MapName) == "" {
		return MatchSummary{}, malformed(matchID, "mapName", "missing map name")
	}

	roster, rosterSize, teamA, teamB, err := buildRoster(matchID, telemetry.Players)
	if err != nil {
		return MatchSummary{}, err
	}

	var lastTS int64
	for i, event := range telemetry.Events {
		if i > 0 && event.Timestamp < lastTS {
			return MatchSummary{}, malformed(matchID, fmt.Sprintf("events[%d].timestamp", i),
				"non-monotonic timestamp %d after %d", event.Timestamp, lastTS)
		}
		lastTS = event.Timestamp
	}

	summary := MatchSummary{
		MatchID: matchID,
		MapName: telemetry.MapName,
		TeamAID: teamA,
		TeamBID: teamB,
	}

	stats := newStatAccumulator(roster)
	teamWins := map[string]int{teamA: 0, teamB: 0}
	keptRounds := 0

	var current *roundAccumulator
	ordinal := 0

	finalize := func(acc *roundAccumulator) {
		result, kept, roundErr := p.classifyRound(acc, roster, rosterSize, teamA, teamB)
		if !kept {
			summary.RoundErrors = append(summary.RoundErrors, *roundErr)
			return
		}

		keptRounds++
		result.round.MatchID = matchID
		result.round.Number = keptRounds
		summary.Rounds = append(summary.Rounds, result.round)
		teamWins[result.winnerTeam]++
		stats.fold(acc)
	}

	for i, event := range telemetry.Events {
		switch event.Type {
		case eventRoundStart:
			if current != nil {
				finalize(current)
			}
			ordinal++
			acc, err := openRound(matchID, ordinal, i, event, roster, teamA, teamB)
			if err != nil {
				return MatchSummary{}, err
			}
			current = acc

		case eventRoundEnd:
			if current == nil {
				continue
			}
			finalize(current)
			current = nil

		case eventDamage:
			if current == nil {
				continue
			}
			if err := current.recordDamage(matchID, i, event, roster); err != nil {
				return MatchSummary{}, err
			}

		case eventKill:
			if current == nil {
				continue
			}
			if err := current.recordKill(matchID, i, event, roster); err != nil {
				return MatchSummary{}, err
			}

		case eventSpikeDefuse, eventSpikeDetonate:
			if current == nil {
				continue
			}
			if current.spikeTerminal == nil {
				terminal := event
				current.spikeTerminal = &terminal
			}

		case eventRoundTimerExpire:
			if current != nil {
				current.timerExpired = true
			}

		case eventSpikePlant:
			// Plants do not terminate rounds; only defuse/detonate matter here.

		default:
			// Unknown event types are skipped for forward compatibility.
		}
	}

	if current != nil {
		finalize(current)
	}

	summary.Score = fmt.Sprintf("%d-%d", teamWins[teamA], teamWins[teamB])
	summary.Players = stats.rows(matchID, keptRounds)
	return summary, nil
}

type roundOutcome struct {
	round      round.Round
	winnerTeam string
}

type roundAccumulator struct {
	ordinal int
	sides   map[string]string
	values  map[string]int

	kills         []rawEvent
	damage        map[string]float64
	spikeTerminal *rawEvent
	timerExpired  bool
}

func openRound(matchID string, ordinal, eventIndex int, event rawEvent, roster map[string]string, teamA, teamB string) (*roundAccumulator, error) {
	acc := &roundAccumulator{
		ordinal: ordinal,
		sides:   make(map[string]string, 2),
		values:  make(map[string]int, 2),
		damage:  make(map[string]float64),
	}

	field := fmt.Sprintf("events[%d].loadouts", eventIndex)
	if len(event.Loadouts) != 2 {
		return nil, malformed(matchID, field, "expected 2 team loadouts, got %d", len(event.Loadouts))
	}

	for _, loadout := range event.Loadouts {
		if loadout.TeamID != teamA && loadout.TeamID != teamB {
			return nil, malformed(matchID, field, "loadout for unknown team %q", loadout.TeamID)
		}
		side := round.NormalizeSide(loadout.Side)
		if side == "" {
			return nil, malformed(matchID, field, "team %s has invalid side %q", loadout.TeamID, loadout.Side)
		}
		if loadout.Value < 0 {
			return nil, malformed(matchID, field, "team %s has negative loadout value %d", loadout.TeamID, loadout.Value)
		}
		if _, dup := acc.sides[loadout.TeamID]; dup {
			return nil, malformed(matchID, field, "duplicate loadout for team %s", loadout.TeamID)
		}
		acc.sides[loadout.TeamID] = side
		acc.values[loadout.TeamID] = loadout.Value
	}

	if acc.sides[teamA] == acc.sides[teamB] {
		return nil, malformed(matchID, field, "both teams on side %q", acc.sides[teamA])
	}

	return acc, nil
}

func (acc *roundAccumulator) recordDamage(matchID string, eventIndex int, event rawEvent, roster map[string]string) error {
	field := fmt.Sprintf("events[%d]", eventIndex)
	if _, ok := roster[event.AttackerID]; !ok {
		return malformed(matchID, field+".attackerId", "damage from unknown player %q", event.AttackerID)
	}
	if _, ok := roster[event.VictimID]; !ok {
		return malformed(matchID, field+".victimId", "damage to unknown player %q", event.VictimID)
	}
	if event.Amount < 0 {
		return malformed(matchID, field+".amount", "negative damage %v", event.Amount)
	}
	acc.damage[event.AttackerID] += event.Amount
	return nil
}

func (acc *roundAccumulator) recordKill(matchID string, eventIndex int, event rawEvent, roster map[string]string) error {
	field := fmt.Sprintf("events[%d]", eventIndex)
	if _, ok := roster[event.KillerID]; !ok {
		return malformed(matchID, field+".killerId", "kill by unknown player %q", event.KillerID)
	}
	if _, ok := roster[event.VictimID]; !ok {
		return malformed(matchID, field+".victimId", "kill of unknown player %q", event.VictimID)
	}
	for _, assistID := range event.AssistIDs {
		if _, ok := roster[assistID]; !ok {
			return malformed(matchID, field+".assistIds", "assist by unknown player %q", assistID)
		}
	}
	acc.kills = append(acc.kills, event)
	return nil
}

// classifyRound resolves the terminal event for one round. kept is false when
// the round is valid telemetry but never reached a terminal; that is reported
// through roundErr instead of failing the match.
func (p *Parser) classifyRound(acc *roundAccumulator, roster map[string]string, rosterSize map[string]int, teamA, teamB string) (roundOutcome, bool, *RoundError) {
	attackTeam, defenseTeam := teamA, teamB
	if acc.sides[teamA] == round.SideDefense {
		attackTeam, defenseTeam = teamB, teamA
	}

	outcome := roundOutcome{
		round: round.Round{
			TeamAEcon: p.thresholds.Classify(acc.values[teamA]),
			TeamBEcon: p.thresholds.Classify(acc.values[teamB]),
		},
	}

	if wipedTeam, ok := acc.eliminationBeforeSpike(roster, rosterSize); ok {
		winner := teamA
		if wipedTeam == teamA {
			winner = teamB
		}
		outcome.winnerTeam = winner
		outcome.round.WinType = round.WinTypeElimination
		outcome.round.WinningSide = acc.sides[winner]
		return outcome, true, nil
	}

	if acc.spikeTerminal != nil {
		if acc.spikeTerminal.Type == eventSpikeDefuse {
			outcome.winnerTeam = defenseTeam
			outcome.round.WinType = round.WinTypeDefuse
			outcome.round.WinningSide = round.SideDefense
		} else {
			outcome.winnerTeam = attackTeam
			outcome.round.WinType = round.WinTypeDetonate
			outcome.round.WinningSide = round.SideAttack
		}
		return outcome, true, nil
	}

	if acc.timerExpired {
		outcome.winnerTeam = defenseTeam
		outcome.round.WinType = round.WinTypeTime
		outcome.round.WinningSide = round.SideDefense
		return outcome, true, nil
	}

	return roundOutcome{}, false, &RoundError{
		Round:  acc.ordinal,
		Reason: "no terminal event before next round",
	}
}

// eliminationBeforeSpike reports the team wiped by kills, considering only
// kills strictly before the spike terminal when one exists.
func (acc *roundAccumulator) eliminationBeforeSpike(roster map[string]string, rosterSize map[string]int) (string, bool) {
	deaths := make(map[string]int, 2)
	for _, kill := range acc.kills {
		if acc.spikeTerminal != nil && kill.Timestamp >= acc.spikeTerminal.Timestamp {
			break
		}
		team := roster[kill.VictimID]
		deaths[team]++
		if deaths[team] >= rosterSize[team] {
			return team, true
		}
	}
	return "", false
}

type statAccumulator struct {
	playerIDs []string
	kills     map[string]int
	deaths    map[string]int
	assists   map[string]int
	damage    map[string]float64
}

func newStatAccumulator(roster map[string]string) *statAccumulator {
	ids := make([]string, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &statAccumulator{
		playerIDs: ids,
		kills:     make(map[string]int, len(ids)),
		deaths:    make(map[string]int, len(ids)),
		assists:   make(map[string]int, len(ids)),
		damage:    make(map[string]float64, len(ids)),
	}
}

// fold commits one kept round's contributions. Dropped rounds never reach
// here, so their kills and damage do not leak into match aggregates.
func (s *statAccumulator) fold(acc *roundAccumulator) {
	for _, kill := range acc.kills {
		s.kills[kill.KillerID]++
		s.deaths[kill.VictimID]++
		for _, assistID := range kill.AssistIDs {
			s.assists[assistID]++
		}
	}
	for playerID, amount := range acc.damage {
		s.damage[playerID] += amount
	}
}

func (s *statAccumulator) rows(matchID string, roundsPlayed int) []playerstat.PlayerStat {
	out := make([]playerstat.PlayerStat, 0, len(s.playerIDs))
	for _, playerID := range s.playerIDs {
		stat := playerstat.PlayerStat{
			MatchID:  matchID,
			PlayerID: playerID,
			Kills:    s.kills[playerID],
			Deaths:   s.deaths[playerID],
			Assists:  s.assists[playerID],
		}
		if roundsPlayed > 0 {
			stat.ADR = s.damage[playerID] / float64(roundsPlayed)
		}
		out = append(out, stat)
	}
	return out
}

func buildRoster(matchID string, players []rawPlayer) (roster map[string]string, rosterSize map[string]int, teamA, teamB string, err error) {
	if len(players) == 0 {
		return nil, nil, "", "", malformed(matchID, "players", "empty player roster")
	}

	roster = make(map[string]string, len(players))
	rosterSize = make(map[string]int, 2)
	teamIDs := make([]string, 0, 2)

	for i, player := range players {
		field := fmt.Sprintf("players[%d]", i)
		if strings.TrimSpace(player.ID) == "" {
			return nil, nil, "", "", malformed(matchID, field+".id", "missing player id")
		}
		if strings.TrimSpace(player.TeamID) == "" {
			return nil, nil, "", "", malformed(matchID, field+".teamId", "missing team id")
		}
		if _, dup := roster[player.ID]; dup {
			return nil, nil, "", "", malformed(matchID, field+".id", "duplicate player id %q", player.ID)
		}
		roster[player.ID] = player.TeamID
		if rosterSize[player.TeamID] == 0 {
			teamIDs = append(teamIDs, player.TeamID)
		}
		rosterSize[player.TeamID]++
	}

	if len(teamIDs) != 2 {
		return nil, nil, "", "", malformed(matchID, "players", "expected 2 teams, got %d", len(teamIDs))
	}

	sort.Strings(teamIDs)
	return roster, rosterSize, teamIDs[0], teamIDs[1], nil
}
