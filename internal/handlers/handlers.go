// Package handlers implements the HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/nba-fantasy-server/internal/players"
	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Response messages.
const (
	msgRunning             = "NBA Fantasy Backend is running!"
	msgActivePlayersFailed = "Failed to fetch active players"
	msgCompareFailed       = "Failed to compare players"
	msgLeadersFailed       = "Failed to fetch leaders"
	msgNeedTwoIDs          = `Please provide exactly two player IDs as a comma-separated list in the "ids" query parameter.`
	msgBadNumOfDays        = `"numOfDays" must be a positive integer.`
)

// PlayerService is the data layer behind the handlers.
type PlayerService interface {
	ActivePlayers(ctx context.Context) (nba.RosterSnapshot, error)
	Compare(ctx context.Context, ids []string, windowDays int) ([]players.Comparison, error)
	Leaders(ctx context.Context, category string, limit int) ([]players.Leader, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Players PlayerService

	// Deadline bounds the work done for one request.
	Deadline time.Duration

	logger zerolog.Logger
}

// New creates a new Handler.
func New(svc PlayerService, deadline time.Duration) *Handler {
	return &Handler{
		Players:  svc,
		Deadline: deadline,
		logger:   log.With().Str("component", "http").Logger(),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /api/test", Test)
	mux.HandleFunc("GET /api/active-players", h.ActivePlayers)
	mux.HandleFunc("GET /api/players/compare", h.Compare)
	mux.HandleFunc("GET /api/leaders", h.Leaders)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Test is the connectivity check used by the frontend.
func Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msgRunning})
}

// ActivePlayers returns every team with its roster and season averages.
func (h *Handler) ActivePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	snapshot, err := h.Players.ActivePlayers(ctx)
	if err != nil {
		h.log(r).Error().Err(err).Msg("Active players request failed")
		writeError(w, http.StatusInternalServerError, msgActivePlayersFailed)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Compare returns a side-by-side view of two players.
//
// Query: ids=<id>,<id> (required), numOfDays=<n> (optional, default 7).
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ids, ok := parseIDs(q.Get("ids"))
	if !ok {
		writeError(w, http.StatusBadRequest, msgNeedTwoIDs)
		return
	}

	windowDays := players.DefaultWindowDays
	if raw := strings.TrimSpace(q.Get("numOfDays")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, msgBadNumOfDays)
			return
		}
		windowDays = n
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.Players.Compare(ctx, ids, windowDays)
	if err != nil {
		h.log(r).Error().Err(err).Strs("ids", ids).Msg("Compare request failed")
		writeError(w, http.StatusInternalServerError, msgCompareFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Leaders returns the top players for a stat category.
//
// Query: category (default fantasy), limit (default 50, max 500).
func (h *Handler) Leaders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := strings.TrimSpace(q.Get("category"))
	if category == "" {
		category = players.CategoryFantasy
	}
	if !players.ValidCategory(category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown category %q.", category))
		return
	}

	limit := players.DefaultLeadersLimit
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > players.MaxLeadersLimit {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf(`"limit" must be an integer between 1 and %d.`, players.MaxLeadersLimit))
			return
		}
		limit = n
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	rows, err := h.Players.Leaders(ctx, category, limit)
	if err != nil {
		if errors.Is(err, players.ErrUnknownCategory) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown category %q.", category))
			return
		}
		h.log(r).Error().Err(err).Str("category", category).Msg("Leaders request failed")
		writeError(w, http.StatusInternalServerError, msgLeadersFailed)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// log returns the request-scoped logger when one is attached.
func (h *Handler) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.logger
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.Deadline <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.Deadline)
}

// parseIDs splits a comma-separated list and requires exactly two
// non-empty identifiers.
func parseIDs(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, false
	}
	ids := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}
		ids = append(ids, p)
	}
	return ids, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
