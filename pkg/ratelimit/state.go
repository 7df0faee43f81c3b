// Package ratelimit tracks the upstream API request quota reported by the
// RapidAPI gateway in the X-RateLimit-Requests-* response headers.
//
// The tracker only observes: it exports the quota as metrics and logs when
// it runs low, but never delays or blocks a request.
package ratelimit

import (
	"time"
)

// RapidAPI quota headers.
const (
	HeaderRequestsLimit     = "X-RateLimit-Requests-Limit"
	HeaderRequestsRemaining = "X-RateLimit-Requests-Remaining"
	HeaderRequestsReset     = "X-RateLimit-Requests-Reset"
)

// Thresholds as a fraction of the plan limit.
const (
	// QuotaWarningRatio marks the quota as low when the remaining share
	// falls below this value.
	QuotaWarningRatio = 0.10

	// QuotaCriticalRatio marks the quota as nearly exhausted.
	QuotaCriticalRatio = 0.02
)

// QuotaState is the last observed upstream quota.
type QuotaState struct {
	// Limit is the plan's request allowance for the current period.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current period.
	Remaining int `json:"remaining"`

	// ResetAt is when the period resets, derived from the reset header
	// (seconds until reset). Zero when the header was absent.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was observed.
	LastUpdate time.Time `json:"last_update"`
}

// Known reports whether any quota headers have been observed.
func (s QuotaState) Known() bool {
	return !s.LastUpdate.IsZero()
}

// IsStale returns true if the state is older than maxAge at now.
func (s QuotaState) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}

// RemainingRatio returns Remaining/Limit, or 1 when the limit is unknown.
func (s QuotaState) RemainingRatio() float64 {
	if s.Limit <= 0 {
		return 1
	}
	return float64(s.Remaining) / float64(s.Limit)
}

// IsLow returns true when the remaining share is below QuotaWarningRatio.
func (s QuotaState) IsLow() bool {
	return s.Known() && s.RemainingRatio() < QuotaWarningRatio
}

// IsCritical returns true when the remaining share is below
// QuotaCriticalRatio or nothing is left.
func (s QuotaState) IsCritical() bool {
	return s.Known() && (s.Remaining <= 0 || s.RemainingRatio() < QuotaCriticalRatio)
}

// TimeUntilReset returns the duration from now until the quota resets.
// Returns 0 if the reset time is unknown or has passed.
func (s QuotaState) TimeUntilReset(now time.Time) time.Duration {
	if s.ResetAt.IsZero() {
		return 0
	}
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
