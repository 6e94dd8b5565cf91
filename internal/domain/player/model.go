package player

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPosition = errors.New("unknown player position")

// Position is the natural position a player is primarily fielded at.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DF"
	PositionMidfielder Position = "MD"
	PositionAttacker   Position = "AT"
)

// AllPositions is ordered from the back line forward.
var AllPositions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionAttacker,
}

func ParsePosition(raw string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "GK", "GOALKEEPER":
		return PositionGoalkeeper, nil
	case "DF", "DEF", "DEFENDER":
		return PositionDefender, nil
	case "MD", "MID", "MIDFIELDER":
		return PositionMidfielder, nil
	case "AT", "FWD", "ATTACKER", "FORWARD":
		return PositionAttacker, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPosition, raw)
	}
}

func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionAttacker:
		return true
	default:
		return false
	}
}

// Ratings holds one skill rating per position.
type Ratings struct {
	GK int `json:"GK"`
	DF int `json:"DF"`
	MD int `json:"MD"`
	AT int `json:"AT"`
}

func (r Ratings) At(pos Position) int {
	switch pos {
	case PositionGoalkeeper:
		return r.GK
	case PositionDefender:
		return r.DF
	case PositionMidfielder:
		return r.MD
	case PositionAttacker:
		return r.AT
	default:
		return 0
	}
}

// Player is a squad member of a national team.
type Player struct {
	ID          string
	TeamID      string
	Name        string
	Position    Position
	Ratings     Ratings
	Goals       int
	Appearances int
	IsCaptain   bool
}

// NaturalRating is the rating at the player's natural position.
func (p Player) NaturalRating() int {
	return p.Ratings.At(p.Position)
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if !p.Position.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, p.Position)
	}
	if p.Goals < 0 || p.Appearances < 0 {
		return fmt.Errorf("player counters must be non-negative")
	}

	return nil
}

// IndexByID maps player id to player.
func IndexByID(players []Player) map[string]Player {
	out := make(map[string]Player, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}
