package bracket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

var teams = []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}

func seeded(t *testing.T) Bracket {
	t.Helper()

	b, err := Seed(teams)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func shell(s Slot) match.Match {
	return match.Match{
		ID:      fmt.Sprintf("%s-match", s.Label()),
		Round:   s.Round,
		Index:   s.Index,
		Team1ID: s.Team1ID,
		Team2ID: s.Team2ID,
		Status:  match.StatusScheduled,
	}
}

func complete(m match.Match, team1Score, team2Score int) match.Match {
	m.Status = match.StatusCompleted
	res := &match.Result{Team1Score: team1Score, Team2Score: team2Score, WinnerID: m.Team1ID}
	if team2Score > team1Score {
		res.WinnerID = m.Team2ID
	}
	m.Result = res
	return m
}

func completeOnPenalties(m match.Match, shootout1, shootout2 int) match.Match {
	m.Status = match.StatusCompleted
	m.Result = &match.Result{
		Team1Score:      1,
		Team2Score:      1,
		WentToExtraTime: true,
		WentToPenalties: true,
		PenaltyShootout: &match.PenaltyShootout{Team1Score: shootout1, Team2Score: shootout2},
	}
	return m
}

func attachRound(t *testing.T, b *Bracket, r match.Round) []match.Match {
	t.Helper()

	var out []match.Match
	for _, s := range b.Slots(r) {
		m := shell(*s)
		if err := b.AttachMatch(r, s.Index, m.ID); err != nil {
			t.Fatalf("attach %s: %v", s.Label(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestSeed(t *testing.T) {
	b := seeded(t)
	for i, s := range b.QuarterFinals {
		if s.Team1ID != teams[2*i] || s.Team2ID != teams[2*i+1] {
			t.Fatalf("QF%d seeded %s/%s", i+1, s.Team1ID, s.Team2ID)
		}
	}

	tests := []struct {
		name  string
		teams []string
	}{
		{name: "too few", teams: teams[:7]},
		{name: "duplicate", teams: []string{"t1", "t1", "t3", "t4", "t5", "t6", "t7", "t8"}},
		{name: "empty id", teams: []string{"", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Seed(tc.teams); !errors.Is(err, ErrInvalidSeed) {
				t.Fatalf("expected ErrInvalidSeed, got %v", err)
			}
		})
	}
}

func TestAdvance_QuarterFinalsPopulateSemiFinals(t *testing.T) {
	b := seeded(t)
	qf := attachRound(t, &b, match.RoundQuarterFinal)
	qf[0] = complete(qf[0], 2, 0)            // t1
	qf[1] = complete(qf[1], 0, 1)            // t4
	qf[2] = completeOnPenalties(qf[2], 3, 5) // t6
	qf[3] = complete(qf[3], 3, 2)            // t7

	next, stage, err := Advance(b, StageQuarterFinals, qf)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if stage != StageSemiFinals {
		t.Fatalf("expected semiFinals, got %s", stage)
	}
	if got := next.SemiFinals[0]; got.Team1ID != "t1" || got.Team2ID != "t4" {
		t.Fatalf("SF1 expected t1/t4, got %s/%s", got.Team1ID, got.Team2ID)
	}
	if got := next.SemiFinals[1]; got.Team1ID != "t6" || got.Team2ID != "t7" {
		t.Fatalf("SF2 expected t6/t7, got %s/%s", got.Team1ID, got.Team2ID)
	}
	if b.SemiFinals[0].Team1ID != "" {
		t.Fatalf("input bracket must not be modified")
	}

	again, stageAgain, err := Advance(next, StageQuarterFinals, qf)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if again.SemiFinals != next.SemiFinals || stageAgain != stage {
		t.Fatalf("advance is not idempotent: %+v vs %+v", again.SemiFinals, next.SemiFinals)
	}
}

func TestAdvance_NotReady(t *testing.T) {
	b := seeded(t)

	if _, _, err := Advance(b, StageQuarterFinals, nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady without matches, got %v", err)
	}

	qf := attachRound(t, &b, match.RoundQuarterFinal)
	qf[0] = complete(qf[0], 1, 0)
	qf[1] = complete(qf[1], 1, 0)
	qf[2] = complete(qf[2], 1, 0)

	next, stage, err := Advance(b, StageQuarterFinals, qf)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if stage != StageQuarterFinals || next.SemiFinals[0].Team1ID != "" {
		t.Fatalf("failed advance must not write slots")
	}
}

func TestAdvance_BracketInconsistency(t *testing.T) {
	t.Run("conflicting downstream slot", func(t *testing.T) {
		b := seeded(t)
		qf := attachRound(t, &b, match.RoundQuarterFinal)
		for i := range qf {
			qf[i] = complete(qf[i], 1, 0)
		}
		b.SemiFinals[0].Team1ID = "t2"

		_, _, err := Advance(b, StageQuarterFinals, qf)
		if !errors.Is(err, ErrBracketInconsistency) {
			t.Fatalf("expected ErrBracketInconsistency, got %v", err)
		}
		if b.SemiFinals[0].Team1ID != "t2" {
			t.Fatalf("existing slot must not be overwritten")
		}
	})

	t.Run("match from wrong feeder position", func(t *testing.T) {
		b := seeded(t)
		qf := attachRound(t, &b, match.RoundQuarterFinal)
		for i := range qf {
			qf[i] = complete(qf[i], 1, 0)
		}
		qf[1].Index = 3

		if _, _, err := Advance(b, StageQuarterFinals, qf); !errors.Is(err, ErrBracketInconsistency) {
			t.Fatalf("expected ErrBracketInconsistency, got %v", err)
		}
	})

	t.Run("winner contradicts shootout", func(t *testing.T) {
		b := seeded(t)
		qf := attachRound(t, &b, match.RoundQuarterFinal)
		for i := range qf {
			qf[i] = complete(qf[i], 1, 0)
		}
		qf[0] = completeOnPenalties(qf[0], 4, 2)
		qf[0].Result.WinnerID = qf[0].Team2ID

		if _, _, err := Advance(b, StageQuarterFinals, qf); !errors.Is(err, ErrBracketInconsistency) {
			t.Fatalf("expected ErrBracketInconsistency, got %v", err)
		}
	})
}

func TestAdvance_FullTournamentProducesChampion(t *testing.T) {
	b := seeded(t)
	stage := StageQuarterFinals

	for _, r := range []match.Round{match.RoundQuarterFinal, match.RoundSemiFinal, match.RoundFinal} {
		matches := attachRound(t, &b, r)
		for i := range matches {
			matches[i] = complete(matches[i], 0, 2)
		}
		var err error
		b, stage, err = Advance(b, stage, matches)
		if err != nil {
			t.Fatalf("advance %s: %v", r, err)
		}
	}

	if stage != StageCompleted {
		t.Fatalf("expected completed, got %s", stage)
	}
	champion, ok := b.Champion()
	if !ok || champion != "t8" {
		t.Fatalf("expected champion t8, got %q", champion)
	}

	if _, again, err := Advance(b, StageCompleted, nil); err != nil || again != StageCompleted {
		t.Fatalf("advancing a completed bracket should be a no-op, got %s %v", again, err)
	}
}

func TestInvalidate_ClearsDownstream(t *testing.T) {
	b := seeded(t)
	stage := StageQuarterFinals
	var qf []match.Match
	for _, r := range []match.Round{match.RoundQuarterFinal, match.RoundSemiFinal, match.RoundFinal} {
		matches := attachRound(t, &b, r)
		for i := range matches {
			matches[i] = complete(matches[i], 1, 0)
		}
		if r == match.RoundQuarterFinal {
			qf = matches
		}
		var err error
		b, stage, err = Advance(b, stage, matches)
		if err != nil {
			t.Fatalf("advance %s: %v", r, err)
		}
	}

	out, inv, err := Invalidate(b, qf[1].ID)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if inv.Stage != StageQuarterFinals {
		t.Fatalf("expected rollback to quarterFinals, got %s", inv.Stage)
	}
	if len(inv.Detached) != 2 || inv.Detached[0] != b.SemiFinals[0].MatchID || inv.Detached[1] != b.Final.MatchID {
		t.Fatalf("unexpected detached matches: %v", inv.Detached)
	}
	if out.SemiFinals[0].Team2ID != "" || out.SemiFinals[0].Team1ID != "t1" {
		t.Fatalf("SF1 should keep t1 and clear the QF2 side, got %s/%s", out.SemiFinals[0].Team1ID, out.SemiFinals[0].Team2ID)
	}
	if out.SemiFinals[0].MatchID != "" || out.Final.MatchID != "" {
		t.Fatalf("downstream match references should be cleared")
	}
	if out.Final.Team1ID != "" || out.Final.Team2ID != b.Final.Team2ID {
		t.Fatalf("final should only lose the SF1 side, got %s/%s", out.Final.Team1ID, out.Final.Team2ID)
	}
	if _, ok := out.Champion(); ok {
		t.Fatalf("champion must be cleared")
	}
	if out.QuarterFinals[1].MatchID != qf[1].ID {
		t.Fatalf("invalidated match stays attached")
	}

	removed, _, err := RemoveMatch(b, qf[1].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.QuarterFinals[1].MatchID != "" {
		t.Fatalf("removed match should be detached from its slot")
	}

	if _, _, err := Invalidate(b, "unknown"); !errors.Is(err, ErrBracketInconsistency) {
		t.Fatalf("expected ErrBracketInconsistency for unknown match, got %v", err)
	}
}

func TestAttachMatch(t *testing.T) {
	b := seeded(t)
	if err := b.AttachMatch(match.RoundSemiFinal, 0, "sf"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady for undecided slot, got %v", err)
	}
	if err := b.AttachMatch(match.RoundQuarterFinal, 0, "a"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := b.AttachMatch(match.RoundQuarterFinal, 0, "a"); err != nil {
		t.Fatalf("re-attach same match: %v", err)
	}
	if err := b.AttachMatch(match.RoundQuarterFinal, 0, "b"); !errors.Is(err, ErrBracketInconsistency) {
		t.Fatalf("expected ErrBracketInconsistency, got %v", err)
	}
}

func TestAdvance_RejectsRegistration(t *testing.T) {
	if _, _, err := Advance(New(), StageRegistration, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
