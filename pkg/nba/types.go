package nba

import (
	"encoding/json"
	"strings"
)

// RosterSnapshot is the full league roster with season averages, as
// returned by getNBATeams?rosters=true&statsToGet=averages.
type RosterSnapshot struct {
	Teams []Team `json:"body"`
}

// Team holds team metadata and its roster keyed by player ID.
type Team struct {
	TeamID     string            `json:"teamID,omitempty"`
	TeamAbv    string            `json:"teamAbv"`
	TeamCity   string            `json:"teamCity,omitempty"`
	TeamName   string            `json:"teamName"`
	Conference string            `json:"conference,omitempty"`
	Division   string            `json:"division,omitempty"`
	Roster     map[string]Player `json:"Roster"`
}

// Player is a rostered player's profile.
type Player struct {
	PlayerID       string    `json:"playerID"`
	LongName       string    `json:"longName"`
	Team           string    `json:"team,omitempty"`
	TeamID         string    `json:"teamID,omitempty"`
	Pos            string    `json:"pos,omitempty"`
	BDay           string    `json:"bDay,omitempty"`
	JerseyNum      string    `json:"jerseyNum,omitempty"`
	Height         string    `json:"height,omitempty"`
	Weight         string    `json:"weight,omitempty"`
	Exp            string    `json:"exp,omitempty"`
	College        string    `json:"college,omitempty"`
	NBAComHeadshot string    `json:"nbaComHeadshot,omitempty"`
	ESPNHeadshot   string    `json:"espnHeadshot,omitempty"`
	Injury         *Injury   `json:"injury,omitempty"`
	Stats          StatBlock `json:"stats,omitempty"`
}

// Injury is the single injury record the upstream keeps per player.
type Injury struct {
	Description   string `json:"description"`
	InjDate       string `json:"injDate"`
	Designation   string `json:"designation"`
	InjReturnDate string `json:"injReturnDate"`
}

// Active reports whether the record describes an injury. The upstream
// sends an all-empty object for healthy players.
func (i *Injury) Active() bool {
	if i == nil {
		return false
	}
	return strings.TrimSpace(i.Designation) != "" || strings.TrimSpace(i.Description) != ""
}

// PlayerProfile is a Player annotated with its team's display name and
// abbreviation.
type PlayerProfile struct {
	Player
	TeamName string `json:"teamName"`
	TeamAbv  string `json:"teamAbv"`
}

// Index flattens the snapshot into a player ID lookup. A player listed on
// more than one team resolves to the last team in the snapshot.
func (s RosterSnapshot) Index() map[string]PlayerProfile {
	idx := make(map[string]PlayerProfile)
	for _, team := range s.Teams {
		for pid, player := range team.Roster {
			if player.PlayerID == "" {
				player.PlayerID = pid
			}
			idx[pid] = PlayerProfile{
				Player:   player,
				TeamName: team.TeamName,
				TeamAbv:  team.TeamAbv,
			}
		}
	}
	return idx
}

// PlayerCount returns the number of roster slots across all teams.
func (s RosterSnapshot) PlayerCount() int {
	n := 0
	for _, team := range s.Teams {
		n += len(team.Roster)
	}
	return n
}

// DraftPosition is one row of the average-draft-position list. ADP values
// are kept as delivered (string or number).
type DraftPosition struct {
	PlayerID   string          `json:"playerID"`
	LongName   string          `json:"longName,omitempty"`
	OverallADP json.RawMessage `json:"overallADP,omitempty"`
	PosADP     json.RawMessage `json:"posADP,omitempty"`
}

// Projection is a player's short-term projected stat line. The zero value
// means the upstream had no projection for the requested window.
type Projection struct {
	Stats StatBlock
}

// Available reports whether the projection carries data.
func (p Projection) Available() bool {
	return len(p.Stats) > 0
}
