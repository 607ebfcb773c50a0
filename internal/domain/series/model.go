package series

import "time"

// Series is an ordered set of matches played between two teams in one event
// block. Immutable once fetched from the provider; cached by id.
type Series struct {
	ID        string
	StartTime time.Time
	Teams     []Team
	Matches   []MatchRef
}

// Team is a series participant as the provider reports it.
type Team struct {
	ID   string
	Name string
}

// MatchRef is a match listed under a series, before details are fetched.
type MatchRef struct {
	ID      string
	MapName string
}

// Involves reports whether the given team participates in the series.
func (s Series) Involves(teamID string) bool {
	for _, team := range s.Teams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}
