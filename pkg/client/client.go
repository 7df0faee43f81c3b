// Package client provides the Tank01 Fantasy Stats HTTP client used to
// load NBA rosters, average draft positions and player projections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
	"github.com/Sternrassler/nba-fantasy-server/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Prometheus metrics for upstream client operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nba_upstream_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nba_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nba_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// Upstream defaults.
const (
	DefaultBaseURL = "https://tank01-fantasy-stats.p.rapidapi.com"
	DefaultAPIHost = "tank01-fantasy-stats.p.rapidapi.com"
)

// Tank01 endpoints.
const (
	EndpointTeams       = "/getNBATeams"
	EndpointADP         = "/getNBAADP"
	EndpointProjections = "/getNBAProjections"
)

// maxBodyBytes caps how much of a response body is read. The full roster
// with season averages is a few megabytes.
const maxBodyBytes = 32 << 20

// Client is the Tank01 API client. It performs no caching and no retries.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	quota      *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the RapidAPI key (REQUIRED)
	APIKey string

	// APIHost is sent as X-RapidAPI-Host
	APIHost string

	// BaseURL is the API root, without trailing slash
	BaseURL string

	// RequestTimeout bounds every upstream call, including reading the body
	RequestTimeout time.Duration

	// Circuit breaker: open after BreakerFailures consecutive failures,
	// probe again after BreakerCooldown
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// HTTPClient overrides the transport (optional)
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		APIHost:         DefaultAPIHost,
		BaseURL:         DefaultBaseURL,
		RequestTimeout:  10 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// New creates a new Tank01 client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.APIHost == "" {
		return nil, fmt.Errorf("api host is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be > 0 (got %s)", cfg.RequestTimeout)
	}

	if cfg.BreakerFailures < 1 {
		return nil, fmt.Errorf("breaker_failures must be >= 1 (got %d)", cfg.BreakerFailures)
	}

	if cfg.BreakerCooldown <= 0 {
		return nil, fmt.Errorf("breaker_cooldown must be > 0 (got %s)", cfg.BreakerCooldown)
	}

	logger := log.With().Str("component", "tank01-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		breaker:    newBreaker(cfg, logger),
		quota:      ratelimit.NewTracker(logger, nil),
		config:     cfg,
		logger:     logger,
	}, nil
}

// FetchRosterSnapshot loads every team with its roster and season averages.
func (c *Client) FetchRosterSnapshot(ctx context.Context) (nba.RosterSnapshot, error) {
	params := url.Values{}
	params.Set("rosters", "true")
	params.Set("statsToGet", "averages")

	body, err := c.get(ctx, EndpointTeams, params)
	if err != nil {
		return nba.RosterSnapshot{}, err
	}

	var snapshot nba.RosterSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nba.RosterSnapshot{}, c.decodeError(EndpointTeams, err)
	}
	if snapshot.Teams == nil {
		return nba.RosterSnapshot{}, c.decodeError(EndpointTeams, errors.New("response has no team list"))
	}

	c.logger.Info().
		Int("teams", len(snapshot.Teams)).
		Int("players", snapshot.PlayerCount()).
		Msg("Fetched roster snapshot")

	return snapshot, nil
}

// FetchDraftPositions loads the average-draft-position list. A body without
// a decodable list yields an empty list rather than an error.
func (c *Client) FetchDraftPositions(ctx context.Context) ([]nba.DraftPosition, error) {
	body, err := c.get(ctx, EndpointADP, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Body struct {
			ADPList []nba.DraftPosition `json:"adpList"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Unexpected ADP response shape, using empty list")
		return []nba.DraftPosition{}, nil
	}
	if payload.Body.ADPList == nil {
		return []nba.DraftPosition{}, nil
	}

	return payload.Body.ADPList, nil
}

// FetchProjections loads a player's projection over the next windowDays
// days. A valid response without projection data yields the empty
// Projection, which callers cache as "no projection".
func (c *Client) FetchProjections(ctx context.Context, playerID string, windowDays int) (nba.Projection, error) {
	params := url.Values{}
	params.Set("playerId", playerID)
	params.Set("numOfDays", strconv.Itoa(windowDays))

	body, err := c.get(ctx, EndpointProjections, params)
	if err != nil {
		return nba.Projection{}, err
	}

	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nba.Projection{}, c.decodeError(EndpointProjections, err)
	}

	var payload struct {
		PlayerProjections nba.StatBlock `json:"playerProjections"`
	}
	if len(envelope.Body) == 0 || json.Unmarshal(envelope.Body, &payload) != nil {
		return nba.Projection{}, nil
	}

	return nba.Projection{Stats: payload.PlayerProjections}, nil
}

// Quota returns the last observed upstream quota.
func (c *Client) Quota() ratelimit.QuotaState {
	return c.quota.State()
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// get performs a GET through the circuit breaker and returns the body of a
// 2xx response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, endpoint, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			upstreamErrorsTotal.WithLabelValues(string(ErrorClassCircuitOpen)).Inc()
			upstreamRequestsTotal.WithLabelValues(endpoint, "circuit_open").Inc()
			c.logger.Warn().Str("endpoint", endpoint).Msg("Request rejected by circuit breaker")
			return nil, &UpstreamError{
				Endpoint:   endpoint,
				ErrorClass: ErrorClassCircuitOpen,
				Message:    err.Error(),
				Err:        ErrCircuitOpen,
			}
		}
		return nil, err
	}

	return result.([]byte), nil
}

// do executes a single request bounded by the configured timeout.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	target := c.config.BaseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.config.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.config.APIHost)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", params.Encode()).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(endpoint, err)
	}
	defer resp.Body.Close()

	if err := c.quota.UpdateFromHeaders(resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.networkError(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()
		upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream request error")

		return nil, &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    responseSnippet(resp.Status, body),
		}
	}

	upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return body, nil
}

func (c *Client) networkError(endpoint string, err error) error {
	upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	upstreamRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
	c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
	return &UpstreamError{
		Endpoint:   endpoint,
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        err,
	}
}

func (c *Client) decodeError(endpoint string, err error) error {
	upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to decode upstream response")
	return &UpstreamError{
		Endpoint:   endpoint,
		StatusCode: http.StatusOK,
		ErrorClass: ErrorClassDecode,
		Message:    "decode response",
		Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
	}
}

// responseSnippet returns the status line plus the start of the body.
func responseSnippet(status string, body []byte) string {
	const max = 200
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return status
	}
	if len(body) > max {
		body = append(body[:max:max], "..."...)
	}
	return status + ": " + string(body)
}
