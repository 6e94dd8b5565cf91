package match

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidResult = errors.New("invalid match result")

type Round string

const (
	RoundQuarterFinal Round = "quarterFinal"
	RoundSemiFinal    Round = "semiFinal"
	RoundFinal        Round = "final"
)

// MatchesInRound is the fixed number of fixtures per knockout round.
func MatchesInRound(r Round) int {
	switch r {
	case RoundQuarterFinal:
		return 4
	case RoundSemiFinal:
		return 2
	case RoundFinal:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

type SimulationType string

const (
	SimulationSimulated SimulationType = "simulated"
	SimulationPlayed    SimulationType = "played"
)

// Match is one knockout fixture. Team1 is treated as the home side when
// rendering events and text.
type Match struct {
	ID              string
	TournamentID    string
	Round           Round
	BracketPosition string
	Index           int
	Team1ID         string
	Team2ID         string
	Team1Lineup     []string
	Team2Lineup     []string
	Status          Status
	SimulationType  SimulationType
	Result          *Result
	Events          []Event
	Commentary      []string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Reset returns the match to its scheduled shell, dropping the outcome.
func (m Match) Reset() Match {
	out := m
	out.Status = StatusScheduled
	out.SimulationType = ""
	out.Result = nil
	out.Events = nil
	out.Commentary = nil
	out.Team1Lineup = nil
	out.Team2Lineup = nil
	out.CompletedAt = nil
	return out
}

func (m Match) IsCompleted() bool {
	return m.Status == StatusCompleted && m.Result != nil
}

func (m Match) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == m.Team1ID || teamID == m.Team2ID)
}

// Opponent returns the other side of teamID.
func (m Match) Opponent(teamID string) string {
	if teamID == m.Team1ID {
		return m.Team2ID
	}
	return m.Team1ID
}

// Clone returns a deep copy safe to mutate.
func (m Match) Clone() Match {
	out := m
	if m.Result != nil {
		res := m.Result.Clone()
		out.Result = &res
	}
	out.Team1Lineup = append([]string(nil), m.Team1Lineup...)
	out.Team2Lineup = append([]string(nil), m.Team2Lineup...)
	out.Events = append([]Event(nil), m.Events...)
	out.Commentary = append([]string(nil), m.Commentary...)
	if m.CompletedAt != nil {
		ts := *m.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

// GoalScorer attributes one goal. IsPenalty marks a spot kick in open play,
// never a shootout kick. An own goal counts for TeamID but PlayerID belongs
// to the opposing side.
type GoalScorer struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TeamID      string `json:"teamId"`
	Minute      int    `json:"minute"`
	IsExtraTime bool   `json:"isExtraTime"`
	IsPenalty   bool   `json:"isPenalty"`
	IsOwnGoal   bool   `json:"isOwnGoal,omitempty"`
}

type PenaltyKick struct {
	Order      int    `json:"order"`
	TeamID     string `json:"teamId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Scored     bool   `json:"scored"`
}

type PenaltyShootout struct {
	Team1Score int           `json:"team1Score"`
	Team2Score int           `json:"team2Score"`
	Kicks      []PenaltyKick `json:"kicks,omitempty"`
}

// Result is the decided outcome of a completed match.
type Result struct {
	Team1Score      int              `json:"team1Score"`
	Team2Score      int              `json:"team2Score"`
	WinnerID        string           `json:"winnerId"`
	GoalScorers     []GoalScorer     `json:"goalScorers"`
	WentToExtraTime bool             `json:"wentToExtraTime"`
	WentToPenalties bool             `json:"wentToPenalties"`
	PenaltyShootout *PenaltyShootout `json:"penaltyShootout,omitempty"`
}

func (r Result) Clone() Result {
	out := r
	out.GoalScorers = append([]GoalScorer(nil), r.GoalScorers...)
	if r.PenaltyShootout != nil {
		ps := *r.PenaltyShootout
		ps.Kicks = append([]PenaltyKick(nil), r.PenaltyShootout.Kicks...)
		out.PenaltyShootout = &ps
	}
	return out
}

// GoalsFor counts goal scorer entries credited to teamID.
func (r Result) GoalsFor(teamID string) int {
	n := 0
	for _, g := range r.GoalScorers {
		if g.TeamID == teamID {
			n++
		}
	}
	return n
}

// Validate checks a result against the two sides of the fixture.
func (r Result) Validate(team1ID, team2ID string) error {
	if r.Team1Score < 0 || r.Team2Score < 0 {
		return fmt.Errorf("%w: scores must be non-negative", ErrInvalidResult)
	}
	if r.WinnerID != team1ID && r.WinnerID != team2ID {
		return fmt.Errorf("%w: winner %q is not part of the match", ErrInvalidResult, r.WinnerID)
	}
	if r.GoalsFor(team1ID) != r.Team1Score || r.GoalsFor(team2ID) != r.Team2Score {
		return fmt.Errorf("%w: goal scorers do not add up to %d-%d", ErrInvalidResult, r.Team1Score, r.Team2Score)
	}
	for _, g := range r.GoalScorers {
		if g.Minute < 1 || g.Minute > 120 {
			return fmt.Errorf("%w: goal minute %d out of range", ErrInvalidResult, g.Minute)
		}
		if g.Minute > 90 && !g.IsExtraTime {
			return fmt.Errorf("%w: goal at minute %d must be flagged extra time", ErrInvalidResult, g.Minute)
		}
		if g.IsExtraTime && !r.WentToExtraTime {
			return fmt.Errorf("%w: extra time goal without extra time", ErrInvalidResult)
		}
	}

	if r.WentToPenalties {
		if !r.WentToExtraTime {
			return fmt.Errorf("%w: penalties require extra time", ErrInvalidResult)
		}
		if r.Team1Score != r.Team2Score {
			return fmt.Errorf("%w: penalties require a level score", ErrInvalidResult)
		}
		if r.PenaltyShootout == nil {
			return fmt.Errorf("%w: penalty shootout is missing", ErrInvalidResult)
		}
		ps := r.PenaltyShootout
		if ps.Team1Score == ps.Team2Score {
			return fmt.Errorf("%w: penalty shootout cannot be drawn", ErrInvalidResult)
		}
		want := team1ID
		if ps.Team2Score > ps.Team1Score {
			want = team2ID
		}
		if r.WinnerID != want {
			return fmt.Errorf("%w: winner does not match the shootout", ErrInvalidResult)
		}
		return nil
	}

	if r.PenaltyShootout != nil {
		return fmt.Errorf("%w: shootout recorded without penalties", ErrInvalidResult)
	}
	if r.Team1Score == r.Team2Score {
		return fmt.Errorf("%w: knockout match cannot end level without penalties", ErrInvalidResult)
	}
	want := team1ID
	if r.Team2Score > r.Team1Score {
		want = team2ID
	}
	if r.WinnerID != want {
		return fmt.Errorf("%w: winner does not match the score", ErrInvalidResult)
	}

	return nil
}
