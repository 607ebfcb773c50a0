package round

import "strings"

const (
	SideAttack  = "attack"
	SideDefense = "defense"
)

// Win types, from the terminal event that ended the round.
const (
	WinTypeElimination = "elimination"
	WinTypeDefuse      = "defuse"
	WinTypeDetonate    = "detonate"
	WinTypeTime        = "time"
)

// Economy classifications for a team's round-starting loadout value.
const (
	EconEco   = "eco"
	EconForce = "force"
	EconSemi  = "semi"
	EconFull  = "full"
)

// Round is one round within a match. Numbers are 1-based and contiguous
// within a match.
type Round struct {
	MatchID     string
	Number      int
	WinningSide string
	WinType     string
	TeamAEcon   string
	TeamBEcon   string
}

func NormalizeSide(value string) string {
	side := strings.ToLower(strings.TrimSpace(value))
	switch side {
	case SideAttack, SideDefense:
		return side
	default:
		return ""
	}
}
