package nba

// Scoring weights per stat. Negative weights penalise shot attempts and
// turnovers.
var fantasyWeights = []struct {
	stat   string
	weight float64
}{
	{StatPoints, 1},
	{StatFieldGoalAttempts, -1},
	{StatFieldGoalsMade, 2},
	{StatThreesMade, 4},
	{StatFreeThrowAttempts, -1},
	{StatFreeThrowsMade, 1},
	{StatRebounds, 1},
	{StatAssists, 2},
	{StatSteals, 4},
	{StatBlocks, 4},
	{StatTurnovers, -2},
}

// FantasyPoints scores a stat block:
//
//	pts - fga + 2*fgm + 4*tptfgm - fta + ftm + reb + 2*ast + 4*stl + 4*blk - 2*TOV
//
// Missing or non-numeric stats count as zero.
func FantasyPoints(stats StatBlock) float64 {
	var score float64
	for _, w := range fantasyWeights {
		score += stats.Float(w.stat) * w.weight
	}
	return score
}
