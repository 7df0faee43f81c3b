package players

import (
	"time"

	"github.com/Sternrassler/nba-fantasy-server/pkg/cache"
	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
)

// Cache kinds, used as metric and log labels.
const (
	KindRoster     = "roster"
	KindADP        = "adp"
	KindProjection = "projection"
)

// Default time-to-live per resource kind.
const (
	DefaultRosterTTL     = time.Hour
	DefaultADPTTL        = 24 * time.Hour
	DefaultProjectionTTL = 15 * time.Minute
)

// CacheConfig holds the per-kind TTLs.
type CacheConfig struct {
	RosterTTL     time.Duration
	ADPTTL        time.Duration
	ProjectionTTL time.Duration
}

// DefaultCacheConfig returns the standard TTLs.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		RosterTTL:     DefaultRosterTTL,
		ADPTTL:        DefaultADPTTL,
		ProjectionTTL: DefaultProjectionTTL,
	}
}

// Caches groups the process-wide stores, one per upstream resource kind.
type Caches struct {
	Roster      *cache.Store[cache.SingletonKey, nba.RosterSnapshot]
	ADP         *cache.Store[cache.SingletonKey, []nba.DraftPosition]
	Projections *cache.Store[cache.ProjectionKey, nba.Projection]
}

// NewCaches creates empty stores. Options apply to every store.
func NewCaches(cfg CacheConfig, opts ...cache.Option) *Caches {
	return &Caches{
		Roster:      cache.NewStore[cache.SingletonKey, nba.RosterSnapshot](KindRoster, cfg.RosterTTL, opts...),
		ADP:         cache.NewStore[cache.SingletonKey, []nba.DraftPosition](KindADP, cfg.ADPTTL, opts...),
		Projections: cache.NewStore[cache.ProjectionKey, nba.Projection](KindProjection, cfg.ProjectionTTL, opts...),
	}
}
