package bracket

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

var (
	ErrNotReady             = errors.New("bracket round not ready")
	ErrBracketInconsistency = errors.New("bracket inconsistency")
	ErrInvalidTransition    = errors.New("invalid bracket transition")
	ErrInvalidSeed          = errors.New("invalid bracket seed")
)

const TeamCount = 8

type Stage string

const (
	StageRegistration  Stage = "registration"
	StageQuarterFinals Stage = "quarterFinals"
	StageSemiFinals    Stage = "semiFinals"
	StageFinal         Stage = "final"
	StageCompleted     Stage = "completed"
)

// Round returns the knockout round played during the stage.
func (s Stage) Round() (match.Round, bool) {
	switch s {
	case StageQuarterFinals:
		return match.RoundQuarterFinal, true
	case StageSemiFinals:
		return match.RoundSemiFinal, true
	case StageFinal:
		return match.RoundFinal, true
	default:
		return "", false
	}
}

func (s Stage) Valid() bool {
	switch s {
	case StageRegistration, StageQuarterFinals, StageSemiFinals, StageFinal, StageCompleted:
		return true
	default:
		return false
	}
}

// StageForRound is the stage during which round is played.
func StageForRound(r match.Round) Stage {
	switch r {
	case match.RoundQuarterFinal:
		return StageQuarterFinals
	case match.RoundSemiFinal:
		return StageSemiFinals
	case match.RoundFinal:
		return StageFinal
	default:
		return StageRegistration
	}
}

func nextRound(r match.Round) (match.Round, bool) {
	switch r {
	case match.RoundQuarterFinal:
		return match.RoundSemiFinal, true
	case match.RoundSemiFinal:
		return match.RoundFinal, true
	default:
		return "", false
	}
}

// Slot is one fixture position. Empty team ids mean the feeder is not decided yet.
type Slot struct {
	Round   match.Round `json:"round"`
	Index   int         `json:"index"`
	MatchID string      `json:"matchId,omitempty"`
	Team1ID string      `json:"team1Id,omitempty"`
	Team2ID string      `json:"team2Id,omitempty"`
}

// Ready reports whether both sides of the slot are known.
func (s Slot) Ready() bool {
	return s.Team1ID != "" && s.Team2ID != ""
}

// Label is the bracket position name, e.g. QF1 or SF2.
func (s Slot) Label() string {
	switch s.Round {
	case match.RoundQuarterFinal:
		return fmt.Sprintf("QF%d", s.Index+1)
	case match.RoundSemiFinal:
		return fmt.Sprintf("SF%d", s.Index+1)
	default:
		return "F"
	}
}

// Bracket holds the fixed eight team knockout tree.
type Bracket struct {
	QuarterFinals [4]Slot `json:"quarterFinals"`
	SemiFinals    [2]Slot `json:"semiFinals"`
	Final         Slot    `json:"final"`
	ChampionID    string  `json:"championId,omitempty"`
}

// New returns an empty bracket with every slot labelled.
func New() Bracket {
	var b Bracket
	for i := range b.QuarterFinals {
		b.QuarterFinals[i] = Slot{Round: match.RoundQuarterFinal, Index: i}
	}
	for i := range b.SemiFinals {
		b.SemiFinals[i] = Slot{Round: match.RoundSemiFinal, Index: i}
	}
	b.Final = Slot{Round: match.RoundFinal}
	return b
}

// Seed pairs teams in order: 0v1, 2v3, 4v5, 6v7.
func Seed(teamIDs []string) (Bracket, error) {
	if len(teamIDs) != TeamCount {
		return Bracket{}, fmt.Errorf("%w: expected %d teams, got %d", ErrInvalidSeed, TeamCount, len(teamIDs))
	}
	seen := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if id == "" {
			return Bracket{}, fmt.Errorf("%w: empty team id", ErrInvalidSeed)
		}
		if _, dup := seen[id]; dup {
			return Bracket{}, fmt.Errorf("%w: team %s seeded twice", ErrInvalidSeed, id)
		}
		seen[id] = struct{}{}
	}

	b := New()
	for i := range b.QuarterFinals {
		b.QuarterFinals[i].Team1ID = teamIDs[2*i]
		b.QuarterFinals[i].Team2ID = teamIDs[2*i+1]
	}
	return b, nil
}

// Slots returns pointers into b for the given round.
func (b *Bracket) Slots(r match.Round) []*Slot {
	switch r {
	case match.RoundQuarterFinal:
		return []*Slot{&b.QuarterFinals[0], &b.QuarterFinals[1], &b.QuarterFinals[2], &b.QuarterFinals[3]}
	case match.RoundSemiFinal:
		return []*Slot{&b.SemiFinals[0], &b.SemiFinals[1]}
	case match.RoundFinal:
		return []*Slot{&b.Final}
	default:
		return nil
	}
}

func (b *Bracket) Slot(r match.Round, index int) (*Slot, error) {
	slots := b.Slots(r)
	if index < 0 || index >= len(slots) {
		return nil, fmt.Errorf("%w: no slot %s[%d]", ErrBracketInconsistency, r, index)
	}
	return slots[index], nil
}

// SlotOfMatch finds the slot referencing matchID.
func (b *Bracket) SlotOfMatch(matchID string) (*Slot, bool) {
	if matchID == "" {
		return nil, false
	}
	for _, r := range []match.Round{match.RoundQuarterFinal, match.RoundSemiFinal, match.RoundFinal} {
		for _, s := range b.Slots(r) {
			if s.MatchID == matchID {
				return s, true
			}
		}
	}
	return nil, false
}

// AttachMatch records the match created for a ready slot.
func (b *Bracket) AttachMatch(r match.Round, index int, matchID string) error {
	s, err := b.Slot(r, index)
	if err != nil {
		return err
	}
	if !s.Ready() {
		return fmt.Errorf("%w: slot %s has undecided teams", ErrNotReady, s.Label())
	}
	if s.MatchID != "" && s.MatchID != matchID {
		return fmt.Errorf("%w: slot %s already holds match %s", ErrBracketInconsistency, s.Label(), s.MatchID)
	}
	s.MatchID = matchID
	return nil
}

// Feeds returns the slot a winner of (r, index) advances into and whether it
// takes the team1 side there.
func Feeds(r match.Round, index int) (next match.Round, nextIndex int, team1Side bool, ok bool) {
	next, ok = nextRound(r)
	if !ok {
		return "", 0, false, false
	}
	return next, index / 2, index%2 == 0, true
}
