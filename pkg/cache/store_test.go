package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var errUpstream = errors.New("upstream down")

type snapshot struct {
	Version int
	Teams   []string
	Note    string
}

// countingFetch returns a FetchFunc that serves values in order and counts calls.
// A nil value in errs means success for that call.
func countingFetch[V any](calls *int32, values []V, errs []error) FetchFunc[V] {
	return func(ctx context.Context) (V, error) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		var zero V
		if n < len(errs) && errs[n] != nil {
			return zero, errs[n]
		}
		if n < len(values) {
			return values[n], nil
		}
		return zero, errors.New("unexpected fetch")
	}
}

func newTestStore[K Key, V any](t *testing.T, kind string, ttl time.Duration) (*Store[K, V], *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewStore[K, V](kind, ttl, WithClock(clock), WithLogger(zerolog.Nop())), clock
}

func TestNewStore_PanicsOnZeroTTL(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with zero ttl")
		}
	}()
	NewStore[SingletonKey, int]("bad", 0)
}

func TestStore_TTLRespected(t *testing.T) {
	store, clock := newTestStore[SingletonKey, string](t, "test_ttl", time.Hour)
	ctx := context.Background()

	var calls int32
	fetch := countingFetch(&calls, []string{"first", "second"}, nil)

	v, outcome, err := store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "first" || outcome != OutcomeRefreshed {
		t.Errorf("Get() = %q/%s, want first/refreshed", v, outcome)
	}

	clock.Advance(59 * time.Minute)
	v, outcome, err = store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "first" || outcome != OutcomeHit {
		t.Errorf("Get() within ttl = %q/%s, want first/hit", v, outcome)
	}
	if calls != 1 {
		t.Errorf("fetch calls within ttl = %d, want 1", calls)
	}

	clock.Advance(2 * time.Minute)
	v, outcome, err = store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "second" || outcome != OutcomeRefreshed {
		t.Errorf("Get() after ttl = %q/%s, want second/refreshed", v, outcome)
	}
	if calls != 2 {
		t.Errorf("fetch calls after ttl = %d, want 2", calls)
	}
}

func TestStore_StaleOnFailure(t *testing.T) {
	store, clock := newTestStore[SingletonKey, snapshot](t, "test_stale", time.Hour)
	ctx := context.Background()

	var calls int32
	original := snapshot{Version: 1, Teams: []string{"LAL"}}
	fetch := countingFetch(&calls, []snapshot{original}, []error{nil, errUpstream})

	if _, _, err := store.Get(ctx, SingletonKey{}, fetch); err != nil {
		t.Fatalf("initial Get() error = %v", err)
	}
	before, _ := store.Peek(SingletonKey{})

	staleBefore := testutil.ToFloat64(CacheRequests.WithLabelValues("test_stale", string(OutcomeStale)))

	clock.Advance(2 * time.Hour)
	v, outcome, err := store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() with failing refresh error = %v, want stale value", err)
	}
	if outcome != OutcomeStale {
		t.Errorf("outcome = %s, want %s", outcome, OutcomeStale)
	}
	if v.Version != 1 || len(v.Teams) != 1 || v.Teams[0] != "LAL" {
		t.Errorf("stale value = %+v, want %+v", v, original)
	}

	after, ok := store.Peek(SingletonKey{})
	if !ok {
		t.Fatal("entry removed after failed refresh")
	}
	if !after.FetchedAt.Equal(before.FetchedAt) {
		t.Errorf("FetchedAt changed on failure: %v -> %v", before.FetchedAt, after.FetchedAt)
	}
	if got := store.State(SingletonKey{}); got != StateStale {
		t.Errorf("State() = %s, want %s", got, StateStale)
	}

	staleAfter := testutil.ToFloat64(CacheRequests.WithLabelValues("test_stale", string(OutcomeStale)))
	if staleAfter-staleBefore != 1 {
		t.Errorf("stale counter delta = %v, want 1", staleAfter-staleBefore)
	}
}

func TestStore_ColdFailure(t *testing.T) {
	store, _ := newTestStore[SingletonKey, []string](t, "test_cold", time.Hour)

	var calls int32
	fetch := countingFetch[[]string](&calls, nil, []error{errUpstream})

	v, outcome, err := store.Get(context.Background(), SingletonKey{}, fetch)
	if err == nil {
		t.Fatal("Get() error = nil, want failure on cold cache")
	}
	if !errors.Is(err, errUpstream) {
		t.Errorf("error = %v, want wrapping %v", err, errUpstream)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want %s", outcome, OutcomeFailed)
	}
	if v != nil {
		t.Errorf("value = %v, want zero value", v)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if got := store.State(SingletonKey{}); got != StateEmpty {
		t.Errorf("State() = %s, want %s", got, StateEmpty)
	}
}

func TestStore_ColdFailureThenRecovery(t *testing.T) {
	store, _ := newTestStore[SingletonKey, int](t, "test_recover", time.Hour)
	ctx := context.Background()

	var calls int32
	fetch := countingFetch(&calls, []int{0, 42}, []error{errUpstream, nil})

	if _, _, err := store.Get(ctx, SingletonKey{}, fetch); err == nil {
		t.Fatal("first Get() should fail")
	}

	// A failure does not populate the cache, so the next call fetches again.
	v, outcome, err := store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if v != 42 || outcome != OutcomeRefreshed {
		t.Errorf("Get() = %d/%s, want 42/refreshed", v, outcome)
	}
}

func TestStore_WholeValueReplacement(t *testing.T) {
	store, clock := newTestStore[SingletonKey, snapshot](t, "test_replace", time.Minute)
	ctx := context.Background()

	var calls int32
	first := snapshot{Version: 1, Teams: []string{"LAL", "BOS"}, Note: "preseason"}
	second := snapshot{Version: 2, Teams: []string{"GSW"}}
	fetch := countingFetch(&calls, []snapshot{first, second}, nil)

	if _, _, err := store.Get(ctx, SingletonKey{}, fetch); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	firstAt, _ := store.Peek(SingletonKey{})

	clock.Advance(2 * time.Minute)
	v, _, err := store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if v.Version != 2 || len(v.Teams) != 1 || v.Teams[0] != "GSW" || v.Note != "" {
		t.Errorf("refreshed value = %+v, want %+v (no merge with old fields)", v, second)
	}

	entry, _ := store.Peek(SingletonKey{})
	if !entry.FetchedAt.After(firstAt.FetchedAt) {
		t.Errorf("FetchedAt not advanced: %v -> %v", firstAt.FetchedAt, entry.FetchedAt)
	}
	if !entry.FetchedAt.Equal(clock.Now()) {
		t.Errorf("FetchedAt = %v, want fetch time %v", entry.FetchedAt, clock.Now())
	}
}

func TestStore_EmptyValueIsCached(t *testing.T) {
	store, clock := newTestStore[ProjectionKey, map[string]string](t, "test_sentinel", 15*time.Minute)
	ctx := context.Background()
	key := ProjectionKey{PlayerID: "1", WindowDays: 7}

	var calls int32
	fetch := countingFetch(&calls, []map[string]string{nil, {"pts": "10"}}, nil)

	v, _, err := store.Get(ctx, key, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != nil {
		t.Errorf("value = %v, want empty", v)
	}

	clock.Advance(10 * time.Minute)
	if _, outcome, _ := store.Get(ctx, key, fetch); outcome != OutcomeHit {
		t.Errorf("outcome = %s, want hit for cached empty value", outcome)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}

	clock.Advance(10 * time.Minute)
	v, _, _ = store.Get(ctx, key, fetch)
	if v["pts"] != "10" {
		t.Errorf("value after ttl = %v, want refreshed projection", v)
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	store, _ := newTestStore[ProjectionKey, string](t, "test_keys", time.Minute)
	ctx := context.Background()

	a := ProjectionKey{PlayerID: "1", WindowDays: 7}
	b := ProjectionKey{PlayerID: "1", WindowDays: 14}

	store.Get(ctx, a, func(context.Context) (string, error) { return "seven", nil })
	v, outcome, err := store.Get(ctx, b, func(context.Context) (string, error) { return "fourteen", nil })
	if err != nil || v != "fourteen" || outcome != OutcomeRefreshed {
		t.Errorf("Get(b) = %q/%s/%v, want fourteen/refreshed/nil", v, outcome, err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	if _, _, err := store.Get(ctx, b, func(context.Context) (string, error) { return "", errUpstream }); err != nil {
		t.Errorf("fresh key b should not refetch, got err %v", err)
	}
}

func TestStore_ConcurrentMissesShareFetch(t *testing.T) {
	store, _ := newTestStore[SingletonKey, int](t, "test_shared", time.Hour)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := store.Get(ctx, SingletonKey{}, fetch)
			if err != nil {
				t.Errorf("Get() error = %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("caller %d got %d, want 7", i, v)
		}
	}
}

func TestStore_StateTransitions(t *testing.T) {
	store, clock := newTestStore[SingletonKey, int](t, "test_states", time.Minute)
	ctx := context.Background()
	key := SingletonKey{}

	if got := store.State(key); got != StateEmpty {
		t.Fatalf("initial State() = %s, want empty", got)
	}

	store.Get(ctx, key, func(context.Context) (int, error) { return 1, nil })
	if got := store.State(key); got != StateFresh {
		t.Errorf("State() after fetch = %s, want fresh", got)
	}

	clock.Advance(time.Minute)
	if got := store.State(key); got != StateStale {
		t.Errorf("State() after ttl = %s, want stale", got)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Get(ctx, key, func(context.Context) (int, error) {
			close(started)
			<-release
			return 0, errUpstream
		})
	}()

	<-started
	if got := store.State(key); got != StateRefreshing {
		t.Errorf("State() during fetch = %s, want refreshing", got)
	}
	close(release)
	<-done

	if got := store.State(key); got != StateStale {
		t.Errorf("State() after failed refresh = %s, want stale", got)
	}
}

func TestStore_CallerCancelledServesStale(t *testing.T) {
	store, clock := newTestStore[SingletonKey, string](t, "test_cancel", time.Minute)

	store.Get(context.Background(), SingletonKey{}, func(context.Context) (string, error) { return "old", nil })
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	fetchDone := make(chan struct{})
	fetch := func(fctx context.Context) (string, error) {
		defer close(fetchDone)
		<-release
		if fctx.Err() != nil {
			return "", fctx.Err()
		}
		return "new", nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	v, outcome, err := store.Get(ctx, SingletonKey{}, fetch)
	if err != nil {
		t.Fatalf("Get() error = %v, want stale value", err)
	}
	if v != "old" || outcome != OutcomeStale {
		t.Errorf("Get() = %q/%s, want old/stale", v, outcome)
	}

	// The detached fetch still completes and populates the cache.
	close(release)
	<-fetchDone
	deadline := time.Now().Add(time.Second)
	for store.State(SingletonKey{}) != StateFresh && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	entry, _ := store.Peek(SingletonKey{})
	if entry.Value != "new" {
		t.Errorf("cached value = %q, want new", entry.Value)
	}
}

func TestStore_CallerCancelledColdFails(t *testing.T) {
	store, _ := newTestStore[SingletonKey, string](t, "test_cancel_cold", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)

	_, outcome, err := store.Get(ctx, SingletonKey{}, func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
}

func TestStore_Accessors(t *testing.T) {
	store, _ := newTestStore[SingletonKey, int](t, "rosters", 90*time.Second)
	if store.Kind() != "rosters" {
		t.Errorf("Kind() = %q, want rosters", store.Kind())
	}
	if store.TTL() != 90*time.Second {
		t.Errorf("TTL() = %v, want 90s", store.TTL())
	}
	if _, ok := store.Peek(SingletonKey{}); ok {
		t.Error("Peek() on empty store should report false")
	}
}
