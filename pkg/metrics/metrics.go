// Package metrics exposes the Prometheus registry used by the service.
// Metrics are defined in their respective packages (cache, client,
// ratelimit, middleware) and registered via promauto; this package serves
// them and documents what is available.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - nba_cache_requests_total{kind, outcome} (Counter): Lookups by kind (roster, adp, projection) and outcome (hit, refreshed, stale, failed)
//   - nba_cache_fetch_duration_seconds{kind} (Histogram): Upstream fetch duration on refresh
//   - nba_cache_entries{kind} (Gauge): Stored entries per kind
//
// Upstream Metrics (pkg/client):
//   - nba_upstream_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - nba_upstream_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - nba_upstream_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode, circuit_open)
//   - nba_upstream_breaker_state (Gauge): 0=closed, 1=half-open, 2=open
//   - nba_upstream_breaker_transitions_total{to} (Counter): Breaker transitions by target state
//
// Quota Metrics (pkg/ratelimit):
//   - nba_upstream_quota_remaining (Gauge): Requests left in the RapidAPI quota window
//   - nba_upstream_quota_limit (Gauge): Quota window size
//   - nba_upstream_quota_low_total (Counter): Responses observed with a low quota
//
// HTTP Metrics (internal/middleware):
//   - nba_http_requests_total{route, status} (Counter): Inbound requests
//   - nba_http_request_duration_seconds{route} (Histogram): Inbound request duration
//   - nba_http_rate_limited_total (Counter): Requests rejected by the inbound limiter
//
// Example Prometheus Queries:
//
//   # Stale serve rate per kind
//   sum by (kind) (rate(nba_cache_requests_total{outcome="stale"}[5m]))
//
//   # Cache hit ratio
//   sum(rate(nba_cache_requests_total{outcome="hit"}[5m])) /
//   sum(rate(nba_cache_requests_total[5m]))
//
//   # Quota close to exhaustion
//   nba_upstream_quota_remaining < 50
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(nba_upstream_request_duration_seconds_bucket[5m]))
