package bracket

import (
	"fmt"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

// WinnerOf returns the advancing team of a completed match. When the match
// went to penalties the shootout decides, and a recorded winner that
// disagrees with it is treated as corrupt data.
func WinnerOf(m match.Match) (string, error) {
	if !m.IsCompleted() {
		return "", fmt.Errorf("%w: match %s is not completed", ErrNotReady, m.ID)
	}
	res := m.Result

	winner := res.WinnerID
	if res.WentToPenalties {
		ps := res.PenaltyShootout
		if ps == nil || ps.Team1Score == ps.Team2Score {
			return "", fmt.Errorf("%w: match %s has no decisive shootout", ErrBracketInconsistency, m.ID)
		}
		winner = m.Team1ID
		if ps.Team2Score > ps.Team1Score {
			winner = m.Team2ID
		}
		if res.WinnerID != "" && res.WinnerID != winner {
			return "", fmt.Errorf("%w: match %s winner %s contradicts the shootout", ErrBracketInconsistency, m.ID, res.WinnerID)
		}
	}
	if !m.HasTeam(winner) {
		return "", fmt.Errorf("%w: match %s winner %q is not one of its teams", ErrBracketInconsistency, m.ID, winner)
	}
	return winner, nil
}

// Advance moves the winners of the round played in stage into the next
// round's slots and returns the updated bracket and stage. The input bracket
// is never modified. Re-running it over the same completed round yields the
// same slots.
func Advance(b Bracket, stage Stage, matches []match.Match) (Bracket, Stage, error) {
	if stage == StageCompleted {
		return b, stage, nil
	}
	round, ok := stage.Round()
	if !ok {
		return b, stage, fmt.Errorf("%w: cannot advance from stage %q", ErrInvalidTransition, stage)
	}

	byID := make(map[string]match.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	out := b
	slots := out.Slots(round)
	winners := make([]string, len(slots))

	// Every match is checked before any slot is written.
	for i, s := range slots {
		if s.MatchID == "" {
			return b, stage, fmt.Errorf("%w: slot %s has no match yet", ErrNotReady, s.Label())
		}
		m, found := byID[s.MatchID]
		if !found {
			return b, stage, fmt.Errorf("%w: match %s of slot %s is missing", ErrNotReady, s.MatchID, s.Label())
		}
		if err := checkFeeder(*s, m); err != nil {
			return b, stage, err
		}
		if !m.IsCompleted() {
			return b, stage, fmt.Errorf("%w: match %s (%s) is not completed", ErrNotReady, m.ID, s.Label())
		}
		winner, err := WinnerOf(m)
		if err != nil {
			return b, stage, err
		}
		winners[i] = winner
	}

	next, hasNext := nextRound(round)
	if !hasNext {
		if out.ChampionID != "" && out.ChampionID != winners[0] {
			return b, stage, fmt.Errorf("%w: champion already recorded as %s", ErrBracketInconsistency, out.ChampionID)
		}
		out.ChampionID = winners[0]
		return out, StageCompleted, nil
	}

	for i, winner := range winners {
		_, idx, team1Side, _ := Feeds(round, i)
		target, err := out.Slot(next, idx)
		if err != nil {
			return b, stage, err
		}
		sideID := &target.Team2ID
		if team1Side {
			sideID = &target.Team1ID
		}
		if *sideID != "" && *sideID != winner {
			return b, stage, fmt.Errorf("%w: slot %s already holds %s, refusing %s from %s",
				ErrBracketInconsistency, target.Label(), *sideID, winner, slots[i].Label())
		}
		*sideID = winner
	}

	return out, StageForRound(next), nil
}

func checkFeeder(s Slot, m match.Match) error {
	if m.Round != s.Round || m.Index != s.Index {
		return fmt.Errorf("%w: match %s is %s[%d], slot is %s", ErrBracketInconsistency, m.ID, m.Round, m.Index, s.Label())
	}
	if m.Team1ID != s.Team1ID || m.Team2ID != s.Team2ID {
		return fmt.Errorf("%w: match %s teams %s/%s do not match slot %s %s/%s",
			ErrBracketInconsistency, m.ID, m.Team1ID, m.Team2ID, s.Label(), s.Team1ID, s.Team2ID)
	}
	return nil
}

// Invalidation describes what a correction removed from the bracket.
type Invalidation struct {
	Round    match.Round
	Index    int
	Stage    Stage
	Detached []string
}

// Invalidate clears every downstream slot fed by matchID. The match itself
// stays attached to its slot. Detached lists downstream match ids that no
// longer belong to the bracket.
func Invalidate(b Bracket, matchID string) (Bracket, Invalidation, error) {
	return invalidate(b, matchID, false)
}

// RemoveMatch behaves like Invalidate and also detaches matchID from its slot.
func RemoveMatch(b Bracket, matchID string) (Bracket, Invalidation, error) {
	return invalidate(b, matchID, true)
}

func invalidate(b Bracket, matchID string, detachSelf bool) (Bracket, Invalidation, error) {
	out := b
	s, ok := out.SlotOfMatch(matchID)
	if !ok {
		return b, Invalidation{}, fmt.Errorf("%w: match %s is not in the bracket", ErrBracketInconsistency, matchID)
	}

	inv := Invalidation{Round: s.Round, Index: s.Index, Stage: StageForRound(s.Round)}
	if detachSelf {
		s.MatchID = ""
	}
	out.clearDownstream(s.Round, s.Index, &inv)
	return out, inv, nil
}

func (b *Bracket) clearDownstream(r match.Round, index int, inv *Invalidation) {
	next, idx, team1Side, ok := Feeds(r, index)
	if !ok {
		b.ChampionID = ""
		return
	}
	target, err := b.Slot(next, idx)
	if err != nil {
		return
	}
	if team1Side {
		target.Team1ID = ""
	} else {
		target.Team2ID = ""
	}
	if target.MatchID != "" {
		inv.Detached = append(inv.Detached, target.MatchID)
		target.MatchID = ""
	}
	b.clearDownstream(next, idx, inv)
}

// Champion is the final's winner once the bracket is complete.
func (b Bracket) Champion() (string, bool) {
	return b.ChampionID, b.ChampionID != ""
}
