package team

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
)

const (
	SquadSize         = 23
	StartingElevenLen = 11
)

// SquadTarget is the positional distribution a generated squad aims for.
var SquadTarget = map[player.Position]int{
	player.PositionGoalkeeper: 3,
	player.PositionDefender:   8,
	player.PositionMidfielder: 7,
	player.PositionAttacker:   5,
}

// Stats are cumulative tournament numbers for a team.
type Stats struct {
	Played       int `json:"played"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goalsFor"`
	GoalsAgainst int `json:"goalsAgainst"`
}

// Team is a national side registered in a tournament.
type Team struct {
	ID             string
	TournamentID   string
	Country        string
	Manager        string
	Squad          []player.Player
	StartingEleven []string
	OverallRating  float64
	Stats          Stats
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.TournamentID == "" {
		return fmt.Errorf("team tournament id is required")
	}
	if strings.TrimSpace(t.Country) == "" {
		return fmt.Errorf("team country is required")
	}
	for _, p := range t.Squad {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("squad player %s: %w", p.ID, err)
		}
		if p.TeamID != t.ID {
			return fmt.Errorf("squad player %s belongs to team %s", p.ID, p.TeamID)
		}
	}

	return nil
}

// Starters resolves the starting eleven ids against the squad, skipping unknown ids.
func (t Team) Starters() []player.Player {
	byID := player.IndexByID(t.Squad)
	out := make([]player.Player, 0, len(t.StartingEleven))
	for _, id := range t.StartingEleven {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Bench returns squad members outside the starting eleven.
func (t Team) Bench() []player.Player {
	starting := make(map[string]struct{}, len(t.StartingEleven))
	for _, id := range t.StartingEleven {
		starting[id] = struct{}{}
	}
	out := make([]player.Player, 0, len(t.Squad))
	for _, p := range t.Squad {
		if _, ok := starting[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func (t Team) Captain() (player.Player, bool) {
	for _, p := range t.Squad {
		if p.IsCaptain {
			return p, true
		}
	}
	return player.Player{}, false
}

// Clone returns a deep copy safe to mutate.
func (t Team) Clone() Team {
	out := t
	out.Squad = append([]player.Player(nil), t.Squad...)
	out.StartingEleven = append([]string(nil), t.StartingEleven...)
	return out
}
