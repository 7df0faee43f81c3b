package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Prometheus metrics for the circuit breaker.
var (
	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nba_upstream_breaker_state",
		Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
	})

	breakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nba_upstream_breaker_transitions_total",
		Help: "Total number of circuit breaker state transitions by target state",
	}, []string{"to"})
)

// newBreaker builds the circuit breaker guarding all upstream calls.
// It opens after cfg.BreakerFailures consecutive failures and lets a single
// probe request through once cfg.BreakerCooldown has passed.
func newBreaker(cfg Config, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.BreakerFailures

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tank01",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			breakerState.Set(breakerStateValue(to))
			breakerTransitionsTotal.WithLabelValues(to.String()).Inc()

			event := logger.Warn()
			if to == gobreaker.StateClosed {
				event = logger.Info()
			}
			event.
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
