package usecase

import (
	"context"
	"time"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/series"
)

// EsportsDataProvider is the outbound port to the esports data platform.
// Implementations translate provider payloads into domain shapes and map
// failures onto the shared error taxonomy.
type EsportsDataProvider interface {
	// ListTeamSeries returns the team's most recent series, newest first.
	ListTeamSeries(ctx context.Context, teamID string, limit int) ([]series.Series, error)
	// GetMatchDetails returns one match with its artifact listing.
	GetMatchDetails(ctx context.Context, matchID string) (ExternalMatchDetails, error)
	// DownloadArtifact fetches the raw bytes behind an artifact URL.
	DownloadArtifact(ctx context.Context, artifactURL string) ([]byte, error)
}

type ExternalMatchTeam struct {
	ID   string
	Name string
	Side string
}

type ExternalMatchDetails struct {
	ID        string
	StartTime time.Time
	MapName   string
	Teams     []ExternalMatchTeam
	Artifacts []match.Artifact
}

// EventsArtifact returns the first artifact carrying round-by-round event
// telemetry, if the provider published one for this match.
func (d ExternalMatchDetails) EventsArtifact() (match.Artifact, bool) {
	for _, artifact := range d.Artifacts {
		if artifact.IsEvents() {
			return artifact, true
		}
	}
	return match.Artifact{}, false
}
