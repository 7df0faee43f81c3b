package cache

import (
	"time"
)

// Entry is a cached value and the time it was fetched.
// Entries are immutable once stored; a refresh replaces the whole entry.
type Entry[V any] struct {
	// Value is the fetched value (possibly an empty/sentinel value)
	Value V

	// FetchedAt is when the fetch that produced Value succeeded
	FetchedAt time.Time
}

// Age returns how old the entry is at now.
func (e Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// IsFresh reports whether the entry is younger than ttl at now.
func (e Entry[V]) IsFresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}

// State is the lifecycle state of a single cache key.
type State int

const (
	// StateEmpty means no value has ever been fetched for the key.
	StateEmpty State = iota

	// StateFresh means the cached value is within its TTL.
	StateFresh

	// StateStale means the cached value is past its TTL. It is still served
	// when a refresh fails.
	StateStale

	// StateRefreshing means a fetch for the key is in flight.
	StateRefreshing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Outcome describes how a Get was served.
type Outcome string

const (
	// OutcomeHit means the value came from cache without an upstream call.
	OutcomeHit Outcome = "hit"

	// OutcomeRefreshed means the value was fetched and stored.
	OutcomeRefreshed Outcome = "refreshed"

	// OutcomeStale means the refresh failed and the previous value was served.
	OutcomeStale Outcome = "stale"

	// OutcomeFailed means the refresh failed and there was nothing to serve.
	OutcomeFailed Outcome = "failed"
)
