// Package cache provides time-bounded in-memory caching of upstream
// responses with stale-on-failure semantics.
//
// Each Store caches one kind of resource under its own TTL:
//
//   - Values younger than the TTL are served without an upstream call
//   - Expired values are refreshed on demand by the caller's FetchFunc
//   - A successful fetch replaces the entry as a whole, even when the new
//     value is empty (empty results are cached too)
//   - A failed fetch never modifies the entry or its timestamp; the expired
//     value is served instead, and only a key that was never fetched fails
//   - Concurrent refreshes of one key share a single fetch
//
// # Basic Usage
//
//	rosters := cache.NewStore[cache.SingletonKey, nba.RosterSnapshot]("rosters", time.Hour)
//
//	snapshot, outcome, err := rosters.Get(ctx, cache.SingletonKey{},
//		func(ctx context.Context) (nba.RosterSnapshot, error) {
//			return upstream.FetchRosterSnapshot(ctx)
//		})
//	if err != nil {
//		// never fetched successfully and the fetch failed
//	}
//	if outcome == cache.OutcomeStale {
//		// refresh failed, snapshot is the previous value
//	}
//
// # Entry States
//
// Every key moves through empty -> fresh -> stale -> refreshing ->
// fresh|stale. A failed refresh goes back to stale, never to empty.
// Store.State reports the current state of a key.
//
// # Testing
//
// Pass WithClock(clockwork.NewFakeClock()) to drive expiry without sleeping.
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - nba_cache_requests_total{kind,outcome} - Lookups by outcome (hit, refreshed, stale, failed)
//   - nba_cache_fetch_duration_seconds{kind} - Refresh fetch latency
//   - nba_cache_entries{kind} - Stored entries
package cache
