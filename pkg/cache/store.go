package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads a fresh value from the upstream.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Option configures a Store.
type Option func(*options)

type options struct {
	clock  clockwork.Clock
	logger *zerolog.Logger
}

// WithClock sets the clock used for fetch timestamps and freshness checks.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// Store is a TTL cache for one kind of upstream resource.
//
// Values younger than the TTL are served without calling the upstream.
// Older values are refreshed on demand; when the refresh fails the old
// entry and its timestamp are left untouched and the old value is served.
// Concurrent refreshes of the same key share a single fetch.
type Store[K Key, V any] struct {
	kind   string
	ttl    time.Duration
	clock  clockwork.Clock
	logger zerolog.Logger

	mu         sync.RWMutex
	entries    map[K]*Entry[V]
	refreshing map[K]int

	group singleflight.Group
}

// NewStore creates an empty store. kind labels logs and metrics.
func NewStore[K Key, V any](kind string, ttl time.Duration, opts ...Option) *Store[K, V] {
	if ttl <= 0 {
		panic(fmt.Sprintf("cache %q: ttl must be positive", kind))
	}

	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With().Str("component", "cache").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	return &Store[K, V]{
		kind:       kind,
		ttl:        ttl,
		clock:      o.clock,
		logger:     logger.With().Str("kind", kind).Logger(),
		entries:    make(map[K]*Entry[V]),
		refreshing: make(map[K]int),
	}
}

// Kind returns the store's resource kind.
func (s *Store[K, V]) Kind() string {
	return s.kind
}

// TTL returns the store's time-to-live.
func (s *Store[K, V]) TTL() time.Duration {
	return s.ttl
}

// Get returns the value for key, calling fetch when there is no fresh entry.
//
// A failed fetch falls back to the previous entry (OutcomeStale, nil error)
// if there is one; otherwise the fetch error is returned. The fetch runs
// detached from ctx cancellation so that other callers sharing it are not
// affected; if ctx ends first, Get returns early with the same fallback.
func (s *Store[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[V]) (V, Outcome, error) {
	if entry, ok := s.lookup(key); ok && entry.IsFresh(s.clock.Now(), s.ttl) {
		CacheRequests.WithLabelValues(s.kind, string(OutcomeHit)).Inc()
		s.logger.Debug().
			Str("key", key.String()).
			Dur("age", entry.Age(s.clock.Now())).
			Msg("Cache hit")
		return entry.Value, OutcomeHit, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		return s.refresh(detached, key, fetch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return s.fallback(key, res.Err)
		}
		entry := res.Val.(*Entry[V])
		CacheRequests.WithLabelValues(s.kind, string(OutcomeRefreshed)).Inc()
		return entry.Value, OutcomeRefreshed, nil
	case <-ctx.Done():
		return s.fallback(key, ctx.Err())
	}
}

// refresh fetches and stores a new entry. Nothing is written on error.
func (s *Store[K, V]) refresh(ctx context.Context, key K, fetch FetchFunc[V]) (*Entry[V], error) {
	s.mu.Lock()
	s.refreshing[key]++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing[key]--
		if s.refreshing[key] <= 0 {
			delete(s.refreshing, key)
		}
		s.mu.Unlock()
	}()

	start := time.Now()
	value, err := fetch(ctx)
	CacheFetchDuration.WithLabelValues(s.kind).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", key.String()).
			Msg("Cache refresh failed")
		return nil, err
	}

	entry := &Entry[V]{Value: value, FetchedAt: s.clock.Now()}

	s.mu.Lock()
	s.entries[key] = entry
	size := len(s.entries)
	s.mu.Unlock()

	CacheEntries.WithLabelValues(s.kind).Set(float64(size))
	s.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", s.ttl).
		Msg("Cache refreshed")

	return entry, nil
}

// fallback serves whatever entry exists after a failed or abandoned refresh.
func (s *Store[K, V]) fallback(key K, cause error) (V, Outcome, error) {
	entry, ok := s.lookup(key)
	if !ok {
		CacheRequests.WithLabelValues(s.kind, string(OutcomeFailed)).Inc()
		var zero V
		return zero, OutcomeFailed, fmt.Errorf("%s cache: %w", s.kind, cause)
	}

	now := s.clock.Now()
	if entry.IsFresh(now, s.ttl) {
		CacheRequests.WithLabelValues(s.kind, string(OutcomeHit)).Inc()
		return entry.Value, OutcomeHit, nil
	}

	CacheRequests.WithLabelValues(s.kind, string(OutcomeStale)).Inc()
	s.logger.Warn().
		Err(cause).
		Str("key", key.String()).
		Dur("age", entry.Age(now)).
		Msg("Serving stale cache entry")
	return entry.Value, OutcomeStale, nil
}

func (s *Store[K, V]) lookup(key K) (*Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Peek returns the stored entry for key without triggering a fetch.
func (s *Store[K, V]) Peek(key K) (Entry[V], bool) {
	entry, ok := s.lookup(key)
	if !ok {
		return Entry[V]{}, false
	}
	return *entry, true
}

// State reports the lifecycle state of key.
func (s *Store[K, V]) State(key K) State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.refreshing[key] > 0 {
		return StateRefreshing
	}
	entry, ok := s.entries[key]
	if !ok {
		return StateEmpty
	}
	if entry.IsFresh(s.clock.Now(), s.ttl) {
		return StateFresh
	}
	return StateStale
}

// Len returns the number of stored entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
