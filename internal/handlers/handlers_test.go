package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/nba-fantasy-server/internal/players"
	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
)

type fakeService struct {
	snapshot nba.RosterSnapshot
	err      error

	compareCalls int
	gotIDs       []string
	gotWindow    int
	gotCategory  string
	gotLimit     int
	hadDeadline  bool
}

func (f *fakeService) ActivePlayers(ctx context.Context) (nba.RosterSnapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeService) Compare(ctx context.Context, ids []string, windowDays int) ([]players.Comparison, error) {
	f.compareCalls++
	f.gotIDs = ids
	f.gotWindow = windowDays
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]players.Comparison, len(ids))
	for i, id := range ids {
		out[i] = players.Comparison{ID: id, Injuries: []nba.Injury{}}
	}
	return out, nil
}

func (f *fakeService) Leaders(ctx context.Context, category string, limit int) ([]players.Leader, error) {
	f.gotCategory = category
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []players.Leader{{Rank: 1, PlayerID: "2475", Value: 50}}, nil
}

func serve(t *testing.T, svc PlayerService, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	New(svc, 5*time.Second).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeService{}, "/health")

	if rec.Code != http.StatusOK {
		t.Errorf("want 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"status":"ok"}` {
		t.Errorf("body: got %q", body)
	}
}

func TestTest(t *testing.T) {
	rec := serve(t, &fakeService{}, "/api/test")

	if rec.Code != http.StatusOK {
		t.Errorf("want 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `{"message":"NBA Fantasy Backend is running!"}`
	if body := strings.TrimSpace(rec.Body.String()); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestActivePlayers(t *testing.T) {
	svc := &fakeService{snapshot: nba.RosterSnapshot{Teams: []nba.Team{{
		TeamAbv:  "LAL",
		TeamName: "Lakers",
		Roster:   map[string]nba.Player{"2475": {PlayerID: "2475", LongName: "LeBron James"}},
	}}}}

	rec := serve(t, svc, "/api/active-players")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body struct {
		Body []struct {
			TeamAbv string                    `json:"teamAbv"`
			Roster  map[string]map[string]any `json:"Roster"`
		} `json:"body"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Body) != 1 || body.Body[0].Roster["2475"]["longName"] != "LeBron James" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestActivePlayers_Failure(t *testing.T) {
	rec := serve(t, &fakeService{err: players.ErrRosterUnavailable}, "/api/active-players")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Failed to fetch active players" {
		t.Errorf("error = %q", msg)
	}
}

func TestCompare_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing ids", ""},
		{"empty ids", "?ids="},
		{"one id", "?ids=2475"},
		{"three ids", "?ids=1,2,3"},
		{"blank second id", "?ids=2475,"},
		{"blank first id", "?ids=%20,2475"},
		{"non numeric days", "?ids=1,2&numOfDays=week"},
		{"zero days", "?ids=1,2&numOfDays=0"},
		{"negative days", "?ids=1,2&numOfDays=-7"},
		{"fractional days", "?ids=1,2&numOfDays=1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(t, svc, "/api/players/compare"+tt.query)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("want 400, got %d", rec.Code)
			}
			if decodeError(t, rec) == "" {
				t.Error("expected error message")
			}
			if svc.compareCalls != 0 {
				t.Error("service must not be called on invalid input")
			}
		})
	}
}

func TestCompare_OK(t *testing.T) {
	svc := &fakeService{}
	rec := serve(t, svc, "/api/players/compare?ids=2475,%201001&numOfDays=14")

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Join(svc.gotIDs, ",") != "2475,1001" {
		t.Errorf("ids = %v", svc.gotIDs)
	}
	if svc.gotWindow != 14 {
		t.Errorf("window = %d, want 14", svc.gotWindow)
	}
	if !svc.hadDeadline {
		t.Error("service context should carry the request deadline")
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0]["id"] != "2475" || got[1]["id"] != "1001" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCompare_DefaultWindow(t *testing.T) {
	svc := &fakeService{}
	serve(t, svc, "/api/players/compare?ids=1,2")

	if svc.gotWindow != players.DefaultWindowDays {
		t.Errorf("window = %d, want %d", svc.gotWindow, players.DefaultWindowDays)
	}
}

func TestCompare_DuplicateIDsAllowed(t *testing.T) {
	svc := &fakeService{}
	rec := serve(t, svc, "/api/players/compare?ids=2475,2475")

	if rec.Code != http.StatusOK {
		t.Errorf("want 200, got %d", rec.Code)
	}
}

func TestCompare_Failure(t *testing.T) {
	svc := &fakeService{err: fmt.Errorf("%w: boom", players.ErrRosterUnavailable)}
	rec := serve(t, svc, "/api/players/compare?ids=1,2")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Failed to compare players" {
		t.Errorf("error = %q", msg)
	}
}

func TestLeaders(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantCategory string
		wantLimit    int
	}{
		{"defaults", "", http.StatusOK, "fantasy", 50},
		{"category and limit", "?category=reb&limit=10", http.StatusOK, "reb", 10},
		{"max limit", "?limit=500", http.StatusOK, "fantasy", 500},
		{"unknown category", "?category=dunks", http.StatusBadRequest, "", 0},
		{"limit too large", "?limit=501", http.StatusBadRequest, "", 0},
		{"limit zero", "?limit=0", http.StatusBadRequest, "", 0},
		{"limit not a number", "?limit=ten", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(t, svc, "/api/leaders"+tt.query)

			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if svc.gotCategory != tt.wantCategory || svc.gotLimit != tt.wantLimit {
				t.Errorf("called with %q/%d, want %q/%d", svc.gotCategory, svc.gotLimit, tt.wantCategory, tt.wantLimit)
			}
		})
	}
}

func TestLeaders_Failure(t *testing.T) {
	rec := serve(t, &fakeService{err: errors.New("boom")}, "/api/leaders")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := http.NewServeMux()
	New(&fakeService{}, time.Second).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/test", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("want 405, got %d", rec.Code)
	}
}
