package rating

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func testSquad(t *testing.T) []player.Player {
	t.Helper()

	ids := make([]string, team.SquadSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	squad, err := GenerateSquad(newRand(7), "t1", ids)
	if err != nil {
		t.Fatalf("generate squad: %v", err)
	}
	return squad
}

func TestGeneratePlayerRatings_NaturalPositionBonus(t *testing.T) {
	rng := newRand(42)
	const samples = 2000

	for _, pos := range player.AllPositions {
		t.Run(string(pos), func(t *testing.T) {
			highest := 0
			for i := 0; i < samples; i++ {
				r, err := GeneratePlayerRatings(pos, rng)
				if err != nil {
					t.Fatalf("generate ratings: %v", err)
				}
				for _, p := range player.AllPositions {
					v := r.At(p)
					if v < MinRating || v > MaxRating {
						t.Fatalf("rating out of range: pos=%s value=%d", p, v)
					}
				}
				natural := r.At(pos)
				best := true
				for _, p := range player.AllPositions {
					if r.At(p) > natural {
						best = false
					}
				}
				if best {
					highest++
				}
			}
			if highest < samples*9/10 {
				t.Fatalf("natural position highest in only %d/%d samples", highest, samples)
			}
		})
	}
}

func TestGeneratePlayerRatings_UnknownPosition(t *testing.T) {
	_, err := GeneratePlayerRatings(player.Position("LW"), newRand(1))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !errors.Is(err, player.ErrUnknownPosition) {
		t.Fatalf("expected ErrUnknownPosition, got %v", err)
	}
}

func TestCalculateTeamRating(t *testing.T) {
	mk := func(id string, value int) player.Player {
		return player.Player{ID: id, Position: player.PositionMidfielder, Ratings: player.Ratings{MD: value}}
	}

	t.Run("empty squad", func(t *testing.T) {
		if got := CalculateTeamRating(nil, nil); got != 0 {
			t.Fatalf("expected 0, got %v", got)
		}
	})

	t.Run("no starters averages the squad", func(t *testing.T) {
		squad := []player.Player{mk("a", 80), mk("b", 60)}
		if got := CalculateTeamRating(squad, nil); got != 70 {
			t.Fatalf("expected 70, got %v", got)
		}
	})

	t.Run("bench is down-weighted", func(t *testing.T) {
		squad := []player.Player{mk("a", 80), mk("b", 40)}
		got := CalculateTeamRating(squad, []string{"a"})
		if got <= 70 || got >= 80 {
			t.Fatalf("expected rating between 70 and 80, got %v", got)
		}
	})

	t.Run("better starter never lowers the rating", func(t *testing.T) {
		squad := testSquad(t)
		starting := PickStartingEleven(squad)
		base := CalculateTeamRating(squad, starting)

		improved := append([]player.Player(nil), squad...)
		for i := range improved {
			if improved[i].ID == starting[5] {
				improved[i].Ratings = player.Ratings{GK: 40, DF: 99, MD: 99, AT: 99}
			}
		}
		if got := CalculateTeamRating(improved, starting); got < base {
			t.Fatalf("rating decreased: before=%v after=%v", base, got)
		}
	})
}

func TestValidateTeamComposition_ValidSquad(t *testing.T) {
	squad := testSquad(t)
	report := ValidateTeamComposition(squad, PickStartingEleven(squad))
	if !report.IsValid {
		t.Fatalf("expected valid composition, got errors: %v", report.Errors)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", report.Errors)
	}
	if report.Err() != nil {
		t.Fatalf("expected nil error, got %v", report.Err())
	}
}

func TestValidateTeamComposition_Violations(t *testing.T) {
	squad := testSquad(t)
	starting := PickStartingEleven(squad)

	secondKeeper := ""
	for _, p := range squad {
		if p.Position == player.PositionGoalkeeper && p.ID != starting[0] {
			secondKeeper = p.ID
			break
		}
	}

	tests := []struct {
		name     string
		mutate   func(squad []player.Player, starting []string) ([]player.Player, []string)
		contains []string
		count    int
	}{
		{
			name: "two goalkeepers",
			mutate: func(squad []player.Player, starting []string) ([]player.Player, []string) {
				starting[10] = secondKeeper
				return squad, starting
			},
			contains: []string{"goalkeeper"},
			count:    1,
		},
		{
			name: "ten starters",
			mutate: func(squad []player.Player, starting []string) ([]player.Player, []string) {
				return squad, starting[1:]
			},
			contains: []string{"exactly 11", "goalkeeper"},
			count:    2,
		},
		{
			name: "unknown starter and no captain",
			mutate: func(squad []player.Player, starting []string) ([]player.Player, []string) {
				for i := range squad {
					squad[i].IsCaptain = false
				}
				starting[4] = "ghost"
				return squad, starting
			},
			contains: []string{"ghost", "captain"},
			count:    2,
		},
		{
			name: "duplicate starter and two captains",
			mutate: func(squad []player.Player, starting []string) ([]player.Player, []string) {
				for i := range squad {
					squad[i].IsCaptain = true
				}
				starting[3] = starting[2]
				return squad, starting
			},
			contains: []string{"more than once", "captain"},
			count:    2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, st := tc.mutate(append([]player.Player(nil), squad...), append([]string(nil), starting...))
			report := ValidateTeamComposition(s, st)
			if report.IsValid {
				t.Fatalf("expected invalid composition")
			}
			if len(report.Errors) != tc.count {
				t.Fatalf("expected %d errors, got %d: %v", tc.count, len(report.Errors), report.Errors)
			}
			joined := strings.Join(report.Errors, "|")
			for _, needle := range tc.contains {
				if !strings.Contains(joined, needle) {
					t.Fatalf("expected errors to mention %q, got %v", needle, report.Errors)
				}
			}
			if !errors.Is(report.Err(), ErrCompositionInvalid) {
				t.Fatalf("expected ErrCompositionInvalid, got %v", report.Err())
			}
		})
	}
}

func TestGenerateSquad_Distribution(t *testing.T) {
	squad := testSquad(t)
	if len(squad) != team.SquadSize {
		t.Fatalf("expected %d players, got %d", team.SquadSize, len(squad))
	}

	counts := make(map[player.Position]int)
	captains := 0
	names := make(map[string]struct{})
	for _, p := range squad {
		counts[p.Position]++
		if p.IsCaptain {
			captains++
			if p.Position == player.PositionGoalkeeper {
				t.Fatalf("goalkeeper should not be auto-captain")
			}
		}
		names[p.Name] = struct{}{}
	}
	for pos, want := range team.SquadTarget {
		if counts[pos] != want {
			t.Fatalf("position %s: expected %d, got %d", pos, want, counts[pos])
		}
	}
	if captains != 1 {
		t.Fatalf("expected one captain, got %d", captains)
	}
	if len(names) != len(squad) {
		t.Fatalf("expected unique names, got %d for %d players", len(names), len(squad))
	}
}

func TestGenerateSquad_RequiresIDs(t *testing.T) {
	_, err := GenerateSquad(newRand(1), "t1", []string{"only-one"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
