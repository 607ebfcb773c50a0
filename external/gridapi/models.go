package gridapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/scoutbase/scout/internal/domain/match"
	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/usecase"
)

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type mapNode struct {
	Name string `json:"name"`
}

type seriesTeamNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type seriesMatchNode struct {
	ID  string   `json:"id"`
	Map *mapNode `json:"map"`
}

type seriesNode struct {
	ID        string            `json:"id"`
	StartTime string            `json:"startTime"`
	Teams     []seriesTeamNode  `json:"teams"`
	Matches   []seriesMatchNode `json:"matches"`
}

type seriesEnvelope struct {
	Data struct {
		Series struct {
			Nodes []seriesNode `json:"nodes"`
		} `json:"series"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type matchTeamNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Side string `json:"side"`
}

type artifactNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type matchNode struct {
	ID        string          `json:"id"`
	StartTime string          `json:"startTime"`
	Map       *mapNode        `json:"map"`
	Teams     []matchTeamNode `json:"teams"`
	Artifacts []artifactNode  `json:"artifacts"`
}

type matchEnvelope struct {
	Data struct {
		Match *matchNode `json:"match"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func joinGraphQLErrors(items []graphqlError) string {
	messages := make([]string, 0, len(items))
	for _, item := range items {
		if msg := strings.TrimSpace(item.Message); msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return "unspecified query error"
	}
	return strings.Join(messages, "; ")
}

func mapSeriesNode(node seriesNode) (series.Series, error) {
	if strings.TrimSpace(node.ID) == "" {
		return series.Series{}, fmt.Errorf("%w: series node missing id", usecase.ErrProvider)
	}

	out := series.Series{
		ID:      node.ID,
		Teams:   make([]series.Team, 0, len(node.Teams)),
		Matches: make([]series.MatchRef, 0, len(node.Matches)),
	}
	if parsed := parseProviderTime(node.StartTime); parsed != nil {
		out.StartTime = *parsed
	}

	for _, team := range node.Teams {
		if strings.TrimSpace(team.ID) == "" {
			return series.Series{}, fmt.Errorf("%w: series %s team missing id", usecase.ErrProvider, node.ID)
		}
		out.Teams = append(out.Teams, series.Team{ID: team.ID, Name: team.Name})
	}

	for _, ref := range node.Matches {
		if strings.TrimSpace(ref.ID) == "" {
			return series.Series{}, fmt.Errorf("%w: series %s match ref missing id", usecase.ErrProvider, node.ID)
		}
		mapName := ""
		if ref.Map != nil {
			mapName = ref.Map.Name
		}
		out.Matches = append(out.Matches, series.MatchRef{ID: ref.ID, MapName: mapName})
	}

	return out, nil
}

func mapMatchNode(node matchNode) (usecase.ExternalMatchDetails, error) {
	if strings.TrimSpace(node.ID) == "" {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("%w: match node missing id", usecase.ErrProvider)
	}

	out := usecase.ExternalMatchDetails{
		ID:        node.ID,
		Teams:     make([]usecase.ExternalMatchTeam, 0, len(node.Teams)),
		Artifacts: make([]match.Artifact, 0, len(node.Artifacts)),
	}
	if node.Map != nil {
		out.MapName = node.Map.Name
	}
	if parsed := parseProviderTime(node.StartTime); parsed != nil {
		out.StartTime = *parsed
	}

	for _, team := range node.Teams {
		out.Teams = append(out.Teams, usecase.ExternalMatchTeam{
			ID:   team.ID,
			Name: team.Name,
			Side: team.Side,
		})
	}

	for _, artifact := range node.Artifacts {
		if strings.TrimSpace(artifact.URL) == "" {
			continue
		}
		out.Artifacts = append(out.Artifacts, match.Artifact{
			ID:   artifact.ID,
			Type: artifact.Type,
			URL:  artifact.URL,
		})
	}

	return out, nil
}

func parseProviderTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
