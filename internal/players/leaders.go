package players

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Sternrassler/nba-fantasy-server/pkg/nba"
)

// Leaderboard limits.
const (
	DefaultLeadersLimit = 50
	MaxLeadersLimit     = 500
)

// CategoryFantasy ranks by fantasy points of season averages.
const CategoryFantasy = "fantasy"

// ErrUnknownCategory is returned for a category that cannot be ranked.
var ErrUnknownCategory = errors.New("unknown leaderboard category")

var leaderCategories = map[string]bool{
	CategoryFantasy:    true,
	nba.StatPoints:     true,
	nba.StatRebounds:   true,
	nba.StatAssists:    true,
	nba.StatSteals:     true,
	nba.StatBlocks:     true,
	nba.StatThreesMade: true,
}

// ValidCategory reports whether category can be ranked.
func ValidCategory(category string) bool {
	return leaderCategories[category]
}

// Leader is one leaderboard row.
type Leader struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerID"`
	LongName string  `json:"longName"`
	TeamName string  `json:"teamName"`
	TeamAbv  string  `json:"teamAbv"`
	Pos      string  `json:"pos"`
	Value    float64 `json:"value"`
}

// Leaders ranks rostered players by category, highest first. Players
// without season averages are left out. A limit outside 1..MaxLeadersLimit
// is clamped, with 0 meaning DefaultLeadersLimit.
func (s *Service) Leaders(ctx context.Context, category string, limit int) ([]Leader, error) {
	if category == "" {
		category = CategoryFantasy
	}
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	switch {
	case limit <= 0:
		limit = DefaultLeadersLimit
	case limit > MaxLeadersLimit:
		limit = MaxLeadersLimit
	}

	snapshot, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Leader
	for id, p := range snapshot.Index() {
		if len(p.Stats) == 0 {
			continue
		}
		rows = append(rows, Leader{
			PlayerID: id,
			LongName: p.LongName,
			TeamName: p.TeamName,
			TeamAbv:  p.TeamAbv,
			Pos:      p.Pos,
			Value:    categoryValue(p.Stats, category),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	if rows == nil {
		rows = []Leader{}
	}

	return rows, nil
}

func categoryValue(stats nba.StatBlock, category string) float64 {
	if category == CategoryFantasy {
		return nba.FantasyPoints(stats)
	}
	return stats.Float(category)
}
