package statsfeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/gridpulse/fantasy-api/internal/domain/player"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

const defaultBaseURL = "https://feed.gridstats.example.com/v1"

var errStatsFeedTransient = crerr.New("statsfeed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig

	// RetryBaseDelay is the first backoff of the week-stats timeout retry.
	RetryBaseDelay time.Duration
}

// Client is the gateway to the secondary provider. The feed is public and
// unauthenticated; its only quirk is a flaky week-stats endpoint that earns
// a dedicated timeout retry.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	retryBaseDelay time.Duration
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
		httpClient.Timeout = 15 * time.Second
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
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		retryBaseDelay: retryBaseDelay,
	}
}

// FetchWeekStats returns the per-player stat snapshots for one week. The
// endpoint times out under load often enough that a timeout gets two extra
// attempts with a doubling delay; every other failure is surfaced as-is.
func (c *Client) FetchWeekStats(ctx context.Context, season, week int) (map[string]player.RawStatSnapshot, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", usecase.ErrInvalidInput)
	}

	query := map[string]string{
		"season": strconv.Itoa(season),
		"week":   strconv.Itoa(week),
	}
	root, err := c.doJSON(ctx, "/stats/week", query, true)
	if err != nil {
		return nil, fmt.Errorf("fetch week stats season=%d week=%d: %w", season, week, err)
	}
	return parsePlayerSnapshots(root), nil
}

// FetchWeekProjections returns the per-player projection snapshots for one
// week. Unlike week stats, a timeout here is not retried.
func (c *Client) FetchWeekProjections(ctx context.Context, season, week int) (map[string]player.RawStatSnapshot, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", usecase.ErrInvalidInput)
	}

	query := map[string]string{
		"season": strconv.Itoa(season),
		"week":   strconv.Itoa(week),
	}
	root, err := c.doJSON(ctx, "/projections/week", query, false)
	if err != nil {
		return nil, fmt.Errorf("fetch week projections season=%d week=%d: %w", season, week, err)
	}
	return parsePlayerSnapshots(root), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, retryOnTimeout bool) (any, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "statsfeed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: stats feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, retryOnTimeout)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errStatsFeedTransient) {
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
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	return root, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, retryOnTimeout bool) ([]byte, error) {
	attempts := 1
	if retryOnTimeout {
		attempts = 3
	}

	var lastErr error
	delay := c.retryBaseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := c.once(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !retryOnTimeout || !isTimeout(err) || attempt == attempts-1 {
			break
		}

		c.logger.WarnContext(ctx, "statsfeed week stats timed out, retrying",
			"attempt", attempt+1, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	c.logger.WarnContext(ctx, "statsfeed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Both the sentinel and the transport error stay in the chain so the
		// timeout retry can recognize net.Error timeouts.
		return nil, fmt.Errorf("%w: send request: %w", errStatsFeedTransient, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errStatsFeedTransient, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: feed status=%d", errStatsFeedTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
	return raw, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
