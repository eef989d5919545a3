package leaguehub

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/gridpulse/fantasy-api/internal/domain/league"
	"github.com/gridpulse/fantasy-api/internal/domain/scoring"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

const defaultBaseURL = "https://api.leaguehub.example.com/fantasy/v2"

var errLeagueHubTransient = crerr.New("leaguehub transient failure")

// TokenSource serves the current access token for an owner. A false return
// means the owner is unauthenticated; the client surfaces that as
// usecase.ErrUnauthorized without touching the network.
type TokenSource interface {
	AccessToken(ctx context.Context, ownerID string) (string, bool)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Tokens         TokenSource
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig

	// MinRequestInterval is the provider-wide spacing between requests. The
	// limiter built from it is shared by every concurrent caller.
	MinRequestInterval time.Duration
}

// Client is the gateway to the primary provider. All responses are parsed
// through the defensive normalizers in this package; an empty result from a
// strange payload is preferred over an error.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	limiter        *rate.Limiter
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

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		tokens:         cfg.Tokens,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		limiter:        rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (c *Client) FetchStandings(ctx context.Context, ownerID, leagueKey string) (league.Standings, error) {
	if strings.TrimSpace(leagueKey) == "" {
		return league.Standings{}, fmt.Errorf("%w: league key is required", usecase.ErrInvalidInput)
	}

	root, err := c.doJSON(ctx, ownerID, "/league/"+url.PathEscape(leagueKey)+"/standings", nil)
	if err != nil {
		return league.Standings{}, fmt.Errorf("fetch standings league_key=%s: %w", leagueKey, err)
	}
	return ParseStandings(root, c.logger), nil
}

func (c *Client) FetchScoreboard(ctx context.Context, ownerID, leagueKey string, week int) ([]league.WeeklyTeamScore, error) {
	if strings.TrimSpace(leagueKey) == "" {
		return nil, fmt.Errorf("%w: league key is required", usecase.ErrInvalidInput)
	}
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", usecase.ErrInvalidInput)
	}

	query := map[string]string{"week": strconv.Itoa(week)}
	root, err := c.doJSON(ctx, ownerID, "/league/"+url.PathEscape(leagueKey)+"/scoreboard", query)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard league_key=%s week=%d: %w", leagueKey, week, err)
	}
	return ParseScoreboard(root, week, c.logger), nil
}

func (c *Client) FetchScoringRules(ctx context.Context, ownerID, leagueKey string) (scoring.RuleTable, error) {
	if strings.TrimSpace(leagueKey) == "" {
		return nil, fmt.Errorf("%w: league key is required", usecase.ErrInvalidInput)
	}

	root, err := c.doJSON(ctx, ownerID, "/league/"+url.PathEscape(leagueKey)+"/settings", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch scoring rules league_key=%s: %w", leagueKey, err)
	}
	return ParseScoringRules(root), nil
}

func (c *Client) FetchTeamRoster(ctx context.Context, ownerID, teamKey string, week int) ([]usecase.ExternalRosterPlayer, error) {
	if strings.TrimSpace(teamKey) == "" {
		return nil, fmt.Errorf("%w: team key is required", usecase.ErrInvalidInput)
	}
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", usecase.ErrInvalidInput)
	}

	query := map[string]string{"week": strconv.Itoa(week)}
	root, err := c.doJSON(ctx, ownerID, "/team/"+url.PathEscape(teamKey)+"/roster/players/stats", query)
	if err != nil {
		return nil, fmt.Errorf("fetch roster team_key=%s week=%d: %w", teamKey, week, err)
	}
	return ParseRoster(root, c.logger), nil
}

func (c *Client) doJSON(ctx context.Context, ownerID, path string, query map[string]string) (any, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "leaguehub circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: league provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	token, ok := c.tokens.AccessToken(ctx, ownerID)
	if !ok {
		return nil, fmt.Errorf("%w: no valid credential for owner", usecase.ErrUnauthorized)
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("format", "json")

	fullURL := c.baseURL + path + "?" + values.Encode()

	key := ownerID + ":" + path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, token)
		if c.circuitEnabled {
			if reqErr != nil && isLeagueHubCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var root any
	if err := sonic.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return root, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, token string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errLeagueHubTransient, sanitizeSensitiveText(err.Error(), token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errLeagueHubTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, fmt.Errorf("%w: provider status=%d", usecase.ErrUnauthorized, resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errLeagueHubTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "leaguehub request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func isLeagueHubCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errLeagueHubTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
