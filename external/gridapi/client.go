// Package gridapi implements the esports data platform client. All calls go
// through a shared retry loop, a circuit breaker, and single-flight
// deduplication so a scouting run cannot stampede the provider.
package gridapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scoutbase/scout/internal/domain/series"
	"github.com/scoutbase/scout/internal/platform/cache"
	"github.com/scoutbase/scout/internal/platform/logging"
	"github.com/scoutbase/scout/internal/platform/resilience"
	"github.com/scoutbase/scout/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.grid.gg/query"
	defaultSeriesLimit = 10
	maxResponseBytes   = 32 << 20
)

var errGridTransient = crerr.New("grid transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	SeriesCacheTTL time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.Group
	seriesCache    *cache.Store[[]series.Series]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}
	if _, ok := httpClient.Transport.(*otelhttp.Transport); !ok {
		httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retryBaseDelay := cfg.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = 500 * time.Millisecond
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		retryBaseDelay: retryBaseDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		seriesCache:    cache.NewStore[[]series.Series](cfg.SeriesCacheTTL),
	}
}

func (c *Client) ListTeamSeries(ctx context.Context, teamID string, limit int) ([]series.Series, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", usecase.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSeriesLimit
	}

	cacheKey := "series:" + teamID + ":" + strconv.Itoa(limit)
	if cached, ok := c.seriesCache.Get(cacheKey); ok {
		return cached, nil
	}

	out, err, _ := c.flight.Do(cacheKey, func() (any, error) {
		var envelope seriesEnvelope
		if err := c.executeQuery(ctx, querySeriesForTeam, map[string]any{
			"teamId": teamID,
			"first":  limit,
		}, &envelope); err != nil {
			return nil, err
		}
		if len(envelope.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", usecase.ErrProvider, joinGraphQLErrors(envelope.Errors))
		}

		nodes := envelope.Data.Series.Nodes
		result := make([]series.Series, 0, len(nodes))
		for _, node := range nodes {
			mapped, err := mapSeriesNode(node)
			if err != nil {
				return nil, err
			}
			result = append(result, mapped)
		}
		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list series team_id=%s: %w", teamID, err)
	}

	result, ok := out.([]series.Series)
	if !ok {
		return nil, fmt.Errorf("unexpected series payload type %T", out)
	}

	c.seriesCache.Set(cacheKey, result)
	return result, nil
}

func (c *Client) GetMatchDetails(ctx context.Context, matchID string) (usecase.ExternalMatchDetails, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope matchEnvelope
	if err := c.executeQuery(ctx, queryMatchDetails, map[string]any{"matchId": matchID}, &envelope); err != nil {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("fetch match match_id=%s: %w", matchID, err)
	}
	if len(envelope.Errors) > 0 {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("fetch match match_id=%s: %w: %s", matchID, usecase.ErrProvider, joinGraphQLErrors(envelope.Errors))
	}
	if envelope.Data.Match == nil {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("match match_id=%s: %w", matchID, usecase.ErrNotFound)
	}

	details, err := mapMatchNode(*envelope.Data.Match)
	if err != nil {
		return usecase.ExternalMatchDetails{}, fmt.Errorf("fetch match match_id=%s: %w", matchID, err)
	}
	return details, nil
}

func (c *Client) DownloadArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	artifactURL = strings.TrimSpace(artifactURL)
	if artifactURL == "" {
		return nil, fmt.Errorf("%w: artifact url is required", usecase.ErrInvalidInput)
	}

	raw, err := c.executeRequest(ctx, false, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}
	return raw, nil
}

func (c *Client) executeQuery(ctx context.Context, query string, variables map[string]any, target any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: api key is not configured", usecase.ErrAuthentication)
	}

	body, err := sonic.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	raw, err := c.executeRequest(ctx, true, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode provider payload: %v", usecase.ErrProvider, err)
	}
	return nil
}

// executeRequest runs one provider call through the circuit breaker and the
// retry loop. Authentication failures never retry; transient failures back
// off exponentially from retryBaseDelay. authed marks requests carrying the
// API credential; artifact downloads use pre-signed URLs instead, so their
// rejections are delivery failures, not credential failures.
func (c *Client) executeRequest(ctx context.Context, authed bool, build func() (*http.Request, error)) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "grid circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: provider is temporarily unavailable", usecase.ErrTransport)
		}
	}

	raw, err := c.retryRequest(ctx, authed, build)
	if c.circuitEnabled {
		if err != nil && isGridCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
}

func (c *Client) retryRequest(ctx context.Context, authed bool, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = markTransient(fmt.Errorf("%w: send request: %s", usecase.ErrTransport, c.sanitize(err.Error())))
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()

			switch {
			case readErr != nil:
				lastErr = markTransient(fmt.Errorf("%w: read response body: %v", usecase.ErrTransport, readErr))
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				if authed {
					return nil, fmt.Errorf("%w: provider status=%d", usecase.ErrAuthentication, resp.StatusCode)
				}
				// Pre-signed artifact URLs expire; a 403 here means the link
				// went stale, not that the credential is bad.
				return nil, fmt.Errorf("%w: artifact status=%d", usecase.ErrTransport, resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = markTransient(fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrTransport, resp.StatusCode, abbreviateBody(raw)))
			case authed:
				return nil, fmt.Errorf("%w: status=%d body=%s", usecase.ErrProvider, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("%w: artifact status=%d body=%s", usecase.ErrTransport, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := c.retryBaseDelay << attempt
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: provider request failed", usecase.ErrTransport)
	}
	c.logger.WarnContext(ctx, "grid request failed", "error", lastErr)
	return nil, lastErr
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return value
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(body, maxResponseBytes)); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func markTransient(err error) error {
	return crerr.Mark(err, errGridTransient)
}

func isGridCircuitFailure(err error) bool {
	return crerr.Is(err, errGridTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	const limit = 256
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
