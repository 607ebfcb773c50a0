package match

import (
	"strings"
	"time"
)

// Match is one game on one map between two teams, as stored after ingestion.
type Match struct {
	ID         string
	TeamID     string
	OpponentID string
	MapName    string
	Score      string
	StartTime  time.Time
}

// ArtifactTypeEvents is the artifact type the parser consumes.
const ArtifactTypeEvents = "events"

// Artifact references one downloadable telemetry payload for a match. It is
// ephemeral: fetched, parsed and discarded, never persisted verbatim.
type Artifact struct {
	ID   string
	Type string
	URL  string
}

func (a Artifact) IsEvents() bool {
	return strings.EqualFold(strings.TrimSpace(a.Type), ArtifactTypeEvents)
}
