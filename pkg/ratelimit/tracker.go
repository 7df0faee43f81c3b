package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nba_upstream_quota_remaining",
		Help: "Requests remaining in the current upstream quota period",
	})

	quotaLimit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nba_upstream_quota_limit",
		Help: "Request allowance of the current upstream quota period",
	})

	quotaLowTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nba_upstream_quota_low_total",
		Help: "Total number of responses observed while the upstream quota was low",
	})
)

// Tracker records the upstream quota from response headers.
type Tracker struct {
	mu     sync.RWMutex
	state  QuotaState
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewTracker creates a quota tracker. A nil clock uses the real clock.
func NewTracker(logger zerolog.Logger, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		clock:  clock,
		logger: logger,
	}
}

// State returns the last observed quota.
func (t *Tracker) State() QuotaState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders parses the quota headers of an upstream response.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := strings.TrimSpace(headers.Get(HeaderRequestsRemaining))
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRequestsRemaining, err)
	}

	limit := 0
	if limitStr := strings.TrimSpace(headers.Get(HeaderRequestsLimit)); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRequestsLimit, err)
		}
	}

	now := t.clock.Now()
	state := QuotaState{
		Limit:      limit,
		Remaining:  remain,
		LastUpdate: now,
	}

	if resetStr := strings.TrimSpace(headers.Get(HeaderRequestsReset)); resetStr != "" {
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRequestsReset, err)
		}
		state.ResetAt = now.Add(time.Duration(resetSeconds) * time.Second)
	}

	t.mu.Lock()
	previous := t.state
	t.state = state
	t.mu.Unlock()

	quotaRemaining.Set(float64(remain))
	if limit > 0 {
		quotaLimit.Set(float64(limit))
	}

	switch {
	case state.IsCritical():
		quotaLowTotal.Inc()
		t.logger.Error().
			Int("remaining", remain).
			Int("limit", limit).
			Dur("reset_in", state.TimeUntilReset(now)).
			Msg("Upstream quota nearly exhausted")
	case state.IsLow():
		quotaLowTotal.Inc()
		if !previous.IsLow() {
			t.logger.Warn().
				Int("remaining", remain).
				Int("limit", limit).
				Dur("reset_in", state.TimeUntilReset(now)).
				Msg("Upstream quota running low")
		}
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", limit).
			Msg("Upstream quota updated")
	}

	return nil
}
