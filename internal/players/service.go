// Package players joins roster, draft-position and projection data into
// the comparison and leaderboard views served over HTTP.
package players

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/nba-fantasy-server/pkg/cache"
	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultWindowDays is the projection window used when none is given.
const DefaultWindowDays = 7

// ErrRosterUnavailable is returned when no roster snapshot can be served,
// fresh or stale.
var ErrRosterUnavailable = errors.New("roster snapshot unavailable")

// Upstream is the data source behind the caches.
type Upstream interface {
	FetchRosterSnapshot(ctx context.Context) (nba.RosterSnapshot, error)
	FetchDraftPositions(ctx context.Context) ([]nba.DraftPosition, error)
	FetchProjections(ctx context.Context, playerID string, windowDays int) (nba.Projection, error)
}

// Service answers player queries from cached upstream data.
type Service struct {
	upstream Upstream
	caches   *Caches
	logger   zerolog.Logger
}

// NewService creates a Service.
func NewService(upstream Upstream, caches *Caches) *Service {
	return &Service{
		upstream: upstream,
		caches:   caches,
		logger:   log.With().Str("component", "players").Logger(),
	}
}

// Comparison is one player's side of a comparison.
type Comparison struct {
	ID          string             `json:"id"`
	PlayerInfo  *nba.PlayerProfile `json:"playerInfo"`
	Projections nba.StatBlock      `json:"projections"`
	MainStats   *MainStats         `json:"mainStats"`
	ADP         *ADP               `json:"adp"`
	Injuries    []nba.Injury       `json:"injuries"`
}

// MainStats is the headline stat line derived from season averages.
type MainStats struct {
	FantasyPoints float64 `json:"fantasyPoints"`
	Pts           float64 `json:"pts"`
	Reb           float64 `json:"reb"`
	Ast           float64 `json:"ast"`
	Stl           float64 `json:"stl"`
	Blk           float64 `json:"blk"`
	TOV           float64 `json:"TOV"`
}

// ADP is a player's average draft position, passed through as delivered.
type ADP struct {
	OverallADP json.RawMessage `json:"overallADP"`
	PosADP     json.RawMessage `json:"posADP"`
}

// ActivePlayers returns the roster snapshot.
func (s *Service) ActivePlayers(ctx context.Context) (nba.RosterSnapshot, error) {
	return s.roster(ctx)
}

// Compare builds a Comparison for each id, in order. Only a missing roster
// fails the call; absent ADP, projections or players come back as nulls.
func (s *Service) Compare(ctx context.Context, ids []string, windowDays int) ([]Comparison, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	var (
		wg          sync.WaitGroup
		snapshot    nba.RosterSnapshot
		rosterErr   error
		draft       []nba.DraftPosition
		projections = make([]nba.Projection, len(ids))
	)

	wg.Add(2 + len(ids))
	go func() {
		defer wg.Done()
		snapshot, rosterErr = s.roster(ctx)
	}()
	go func() {
		defer wg.Done()
		draft = s.draftPositions(ctx)
	}()
	for i, id := range ids {
		go func() {
			defer wg.Done()
			projections[i] = s.projection(ctx, id, windowDays)
		}()
	}
	wg.Wait()

	if rosterErr != nil {
		return nil, rosterErr
	}

	profiles := snapshot.Index()
	adpByID := make(map[string]ADP, len(draft))
	for _, d := range draft {
		adpByID[d.PlayerID] = ADP{OverallADP: d.OverallADP, PosADP: d.PosADP}
	}

	results := make([]Comparison, len(ids))
	for i, id := range ids {
		c := Comparison{ID: id, Injuries: []nba.Injury{}}

		if profile, ok := profiles[id]; ok {
			c.PlayerInfo = &profile
			if len(profile.Stats) > 0 {
				c.MainStats = mainStats(profile.Stats)
			}
			if profile.Injury.Active() {
				c.Injuries = append(c.Injuries, *profile.Injury)
			}
		}
		if adp, ok := adpByID[id]; ok {
			c.ADP = &adp
		}
		if projections[i].Available() {
			c.Projections = projections[i].Stats
		}

		results[i] = c
	}

	return results, nil
}

func mainStats(stats nba.StatBlock) *MainStats {
	return &MainStats{
		FantasyPoints: nba.FantasyPoints(stats),
		Pts:           stats.Float(nba.StatPoints),
		Reb:           stats.Float(nba.StatRebounds),
		Ast:           stats.Float(nba.StatAssists),
		Stl:           stats.Float(nba.StatSteals),
		Blk:           stats.Float(nba.StatBlocks),
		TOV:           stats.Float(nba.StatTurnovers),
	}
}

func (s *Service) roster(ctx context.Context) (nba.RosterSnapshot, error) {
	snapshot, outcome, err := s.caches.Roster.Get(ctx, cache.SingletonKey{}, s.upstream.FetchRosterSnapshot)
	if err != nil {
		s.logger.Error().Err(err).Msg("Roster snapshot unavailable")
		return nba.RosterSnapshot{}, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	s.logger.Debug().Str("outcome", string(outcome)).Msg("Roster snapshot served")
	return snapshot, nil
}

// draftPositions degrades to an empty list when nothing can be served.
func (s *Service) draftPositions(ctx context.Context) []nba.DraftPosition {
	list, _, err := s.caches.ADP.Get(ctx, cache.SingletonKey{}, s.upstream.FetchDraftPositions)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Draft positions unavailable, continuing without ADP")
		return nil
	}
	return list
}

// projection degrades to "no projection" when nothing can be served.
func (s *Service) projection(ctx context.Context, playerID string, windowDays int) nba.Projection {
	key := cache.ProjectionKey{PlayerID: playerID, WindowDays: windowDays}
	p, _, err := s.caches.Projections.Get(ctx, key, func(ctx context.Context) (nba.Projection, error) {
		return s.upstream.FetchProjections(ctx, playerID, windowDays)
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("player_id", playerID).
			Int("window_days", windowDays).
			Msg("Projection unavailable")
		return nba.Projection{}
	}
	return p
}
