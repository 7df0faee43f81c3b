package cache

import (
	"testing"
	"time"
)

func TestEntry_IsFresh(t *testing.T) {
	fetchedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{
			name: "just fetched",
			now:  fetchedAt,
			want: true,
		},
		{
			name: "within ttl",
			now:  fetchedAt.Add(59 * time.Minute),
			want: true,
		},
		{
			name: "exactly at ttl",
			now:  fetchedAt.Add(time.Hour),
			want: false,
		},
		{
			name: "past ttl",
			now:  fetchedAt.Add(2 * time.Hour),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry[string]{Value: "v", FetchedAt: fetchedAt}
			if got := entry.IsFresh(tt.now, ttl); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	fetchedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry[int]{Value: 1, FetchedAt: fetchedAt}

	if got := entry.Age(fetchedAt.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Age() = %v, want 90s", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateEmpty, "empty"},
		{StateFresh, "fresh"},
		{StateStale, "stale"},
		{StateRefreshing, "refreshing"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
