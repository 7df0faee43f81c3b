// Package nba defines the player, roster and projection shapes returned by
// the Tank01 Fantasy Stats API and the fantasy-score derivation built on
// top of them.
package nba

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Stat names used by the fantasy formula and the leaderboard.
const (
	StatPoints            = "pts"
	StatFieldGoalAttempts = "fga"
	StatFieldGoalsMade    = "fgm"
	StatThreesMade        = "tptfgm"
	StatFreeThrowAttempts = "fta"
	StatFreeThrowsMade    = "ftm"
	StatRebounds          = "reb"
	StatAssists           = "ast"
	StatSteals            = "stl"
	StatBlocks            = "blk"
	StatTurnovers         = "TOV"
	StatMinutes           = "mins"
	StatGamesPlayed       = "gamesPlayed"
	StatTrueShooting      = "trueShootingPercentage"
)

// StatBlock is a stat-name to value mapping as delivered by the upstream.
// Tank01 encodes most numbers as strings ("25.4"), so values are kept
// verbatim and converted on read.
type StatBlock map[string]any

// Float returns the named stat as a float64.
// Absent, null, non-numeric and non-finite values read as 0.
func (s StatBlock) Float(name string) float64 {
	v, ok := s[name]
	if !ok || v == nil {
		return 0
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Has reports whether the block carries a value for name.
func (s StatBlock) Has(name string) bool {
	_, ok := s[name]
	return ok
}
