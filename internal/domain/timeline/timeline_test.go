package timeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/simulation"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 17))
}

func testSide(teamID, name string, rating float64) Side {
	shape := []player.Position{
		player.PositionGoalkeeper,
		player.PositionDefender, player.PositionDefender, player.PositionDefender, player.PositionDefender,
		player.PositionMidfielder, player.PositionMidfielder, player.PositionMidfielder,
		player.PositionAttacker, player.PositionAttacker, player.PositionAttacker,
		// bench
		player.PositionGoalkeeper, player.PositionDefender, player.PositionDefender,
		player.PositionMidfielder, player.PositionMidfielder, player.PositionAttacker,
	}
	side := Side{TeamID: teamID, Name: name, Rating: rating}
	for i, pos := range shape {
		p := player.Player{
			ID:       fmt.Sprintf("%s-%02d", teamID, i+1),
			TeamID:   teamID,
			Name:     fmt.Sprintf("%s %02d", name, i+1),
			Position: pos,
			Ratings:  player.Ratings{GK: 50, DF: 65, MD: 65, AT: 65},
		}
		if i < 11 {
			side.Starters = append(side.Starters, p)
		} else {
			side.Bench = append(side.Bench, p)
		}
	}
	return side
}

func simulate(t *testing.T, seed uint64, home, away Side) match.Result {
	t.Helper()

	res, err := simulation.NewDefault().Simulate(newRand(seed), simulation.Fixture{
		Team1: simulation.Side{TeamID: home.TeamID, Rating: home.Rating, Players: home.Starters},
		Team2: simulation.Side{TeamID: away.TeamID, Rating: away.Rating, Players: away.Starters},
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return res
}

func shootoutResult(home, away Side) match.Result {
	return match.Result{
		Team1Score: 1,
		Team2Score: 1,
		WinnerID:   away.TeamID,
		GoalScorers: []match.GoalScorer{
			{PlayerID: home.Starters[9].ID, PlayerName: home.Starters[9].Name, TeamID: home.TeamID, Minute: 45},
			{PlayerID: away.Starters[3].ID, PlayerName: away.Starters[3].Name, TeamID: away.TeamID, Minute: 90, IsPenalty: true},
		},
		WentToExtraTime: true,
		WentToPenalties: true,
		PenaltyShootout: &match.PenaltyShootout{
			Team1Score: 3,
			Team2Score: 4,
			Kicks: []match.PenaltyKick{
				{Order: 1, TeamID: home.TeamID, PlayerID: home.Starters[10].ID, PlayerName: home.Starters[10].Name, Scored: true},
				{Order: 2, TeamID: away.TeamID, PlayerID: away.Starters[10].ID, PlayerName: away.Starters[10].Name, Scored: true},
				{Order: 3, TeamID: home.TeamID, PlayerID: home.Starters[9].ID, PlayerName: home.Starters[9].Name, Scored: false},
				{Order: 4, TeamID: away.TeamID, PlayerID: away.Starters[9].ID, PlayerName: away.Starters[9].Name, Scored: true},
				{Order: 5, TeamID: home.TeamID, PlayerID: home.Starters[8].ID, PlayerName: home.Starters[8].Name, Scored: true},
				{Order: 6, TeamID: away.TeamID, PlayerID: away.Starters[8].ID, PlayerName: away.Starters[8].Name, Scored: true},
				{Order: 7, TeamID: home.TeamID, PlayerID: home.Starters[7].ID, PlayerName: home.Starters[7].Name, Scored: true},
				{Order: 8, TeamID: away.TeamID, PlayerID: away.Starters[7].ID, PlayerName: away.Starters[7].Name, Scored: true},
			},
		},
	}
}

func TestGenerate_InvariantsAcrossSimulatedMatches(t *testing.T) {
	home := testSide("BRA", "Brazil", 82)
	away := testSide("JPN", "Japan", 74)

	for seed := uint64(1); seed <= 300; seed++ {
		res := simulate(t, seed, home, away)
		events, err := Generate(newRand(seed*7), res, home, away)
		if err != nil {
			t.Fatalf("seed %d: generate: %v", seed, err)
		}

		if events[len(events)-1].Type != match.EventFinal {
			t.Fatalf("seed %d: last event is %s", seed, events[len(events)-1].Type)
		}
		goals := 0
		var running match.ScoreSnapshot
		for i, ev := range events {
			if i > 0 && ev.Minute < events[i-1].Minute {
				t.Fatalf("seed %d: minutes decrease at %d: %v < %v", seed, i, ev.Minute, events[i-1].Minute)
			}
			if ev.Type.IsScoring() {
				goals++
				if ev.TeamID == home.TeamID {
					running.Team1++
				} else {
					running.Team2++
				}
			}
			if ev.Score == nil || *ev.Score != running {
				t.Fatalf("seed %d: snapshot mismatch at event %d", seed, i)
			}
			if ev.Description == "" {
				t.Fatalf("seed %d: event %d (%s) has no description", seed, i, ev.Type)
			}
		}
		if goals != len(res.GoalScorers) {
			t.Fatalf("seed %d: %d goal events for %d scorers", seed, goals, len(res.GoalScorers))
		}
		if running.Team1 != res.Team1Score || running.Team2 != res.Team2Score {
			t.Fatalf("seed %d: closing score %+v does not match %d-%d", seed, running, res.Team1Score, res.Team2Score)
		}
	}
}

func TestGenerate_ExtraTimeAndPenaltiesSkeleton(t *testing.T) {
	home := testSide("ITA", "Italy", 80)
	away := testSide("ESP", "Spain", 80)
	res := shootoutResult(home, away)

	events, err := Generate(newRand(3), res, home, away)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	index := map[match.EventType]int{}
	kicks := 0
	for i, ev := range events {
		if _, seen := index[ev.Type]; !seen {
			index[ev.Type] = i
		}
		if ev.Type == match.EventPenaltyKick && ev.Minute >= 120 {
			kicks++
		}
	}

	if events[0].Type != match.EventKickoff || events[0].Minute != 0 {
		t.Fatalf("expected kickoff at minute 0, got %+v", events[0])
	}
	if ht := events[index[match.EventHalftime]]; ht.Minute < 45 || ht.Minute >= 46 {
		t.Fatalf("halftime at %v", ht.Minute)
	}
	et := events[index[match.EventExtratime]]
	if et.Minute < 90 || et.Minute >= 91 {
		t.Fatalf("extratime marker at %v", et.Minute)
	}
	for i, ev := range events {
		if ev.Minute > 91 && i < index[match.EventExtratime] {
			t.Fatalf("event %s at %v precedes the extratime marker", ev.Type, ev.Minute)
		}
	}
	ft := events[index[match.EventFulltime]]
	if ft.Minute < 120 || ft.Minute >= 121 {
		t.Fatalf("fulltime at %v, expected 120", ft.Minute)
	}
	if index[match.EventPenalties] < index[match.EventFulltime] {
		t.Fatalf("penalties marker must follow fulltime")
	}
	if kicks != len(res.PenaltyShootout.Kicks) {
		t.Fatalf("expected %d shootout kicks, got %d", len(res.PenaltyShootout.Kicks), kicks)
	}
	if !containsInPlayPenalty(events, away.Starters[3].ID) {
		t.Fatalf("expected a penalty_kick event before the penalty goal")
	}
}

func containsInPlayPenalty(events []match.Event, playerID string) bool {
	for i, ev := range events {
		if ev.Type != match.EventPenaltyKick || ev.PlayerID != playerID || ev.Minute >= 120 {
			continue
		}
		if i+1 < len(events) && events[i+1].Type == match.EventGoal && events[i+1].PlayerID == playerID {
			return true
		}
	}
	return false
}

func TestGenerate_RegenerationKeepsGoals(t *testing.T) {
	home := testSide("FRA", "France", 84)
	away := testSide("GER", "Germany", 83)
	res := simulate(t, 11, home, away)

	first, err := Generate(newRand(1), res, home, away)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(newRand(2), res, home, away)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	type goalKey struct {
		team, player string
		minute       int
	}
	collect := func(events []match.Event) []goalKey {
		var out []goalKey
		for _, ev := range events {
			if ev.Type.IsScoring() {
				out = append(out, goalKey{ev.TeamID, ev.PlayerID, int(math.Floor(ev.Minute))})
			}
		}
		return out
	}

	a, b := collect(first), collect(second)
	if len(a) != len(b) {
		t.Fatalf("goal counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("goal %d differs: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].minute != res.GoalScorers[i].Minute {
			t.Fatalf("goal %d minute %d does not match result minute %d", i, a[i].minute, res.GoalScorers[i].Minute)
		}
	}
	if *first[len(first)-1].Score != *second[len(second)-1].Score {
		t.Fatalf("terminal score differs between generations")
	}
}

func TestGenerate_SubstitutionsStayInSquad(t *testing.T) {
	home := testSide("ARG", "Argentina", 85)
	away := testSide("NED", "Netherlands", 81)
	res := shootoutResult(home, away)
	protected := map[string]bool{}
	for _, g := range res.GoalScorers {
		protected[g.PlayerName] = true
	}
	for _, k := range res.PenaltyShootout.Kicks {
		protected[k.PlayerName] = true
	}

	for seed := uint64(0); seed < 100; seed++ {
		events, err := Generate(newRand(seed), res, home, away)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		subs := map[string]int{}
		for _, ev := range events {
			if ev.Type != match.EventSubstitution {
				continue
			}
			subs[ev.TeamID]++
			side := home
			if ev.TeamID == away.TeamID {
				side = away
			}
			if !side.hasPlayer(ev.PlayerID) {
				t.Fatalf("substitute %s not in squad", ev.PlayerID)
			}
			if protected[ev.SubOut] {
				t.Fatalf("player %s needed later was substituted off", ev.SubOut)
			}
			if ev.Minute < firstSubstitutionFrom {
				t.Fatalf("substitution too early at %v", ev.Minute)
			}
		}
		for teamID, n := range subs {
			if n > regulationSubs+extraTimeSubs {
				t.Fatalf("team %s made %d substitutions", teamID, n)
			}
		}
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	home := testSide("POR", "Portugal", 80)
	away := testSide("BEL", "Belgium", 79)

	tests := []struct {
		name string
		res  match.Result
		home Side
	}{
		{
			name: "winner outside fixture",
			res:  match.Result{Team1Score: 1, WinnerID: "XXX", GoalScorers: []match.GoalScorer{{TeamID: home.TeamID, Minute: 3}}},
			home: home,
		},
		{
			name: "goal list does not add up",
			res:  match.Result{Team1Score: 2, WinnerID: home.TeamID, GoalScorers: []match.GoalScorer{{TeamID: home.TeamID, Minute: 3}}},
			home: home,
		},
		{
			name: "no starters",
			res:  match.Result{Team1Score: 1, WinnerID: home.TeamID, GoalScorers: []match.GoalScorer{{TeamID: home.TeamID, Minute: 3}}},
			home: Side{TeamID: home.TeamID, Name: home.Name},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Generate(newRand(1), tc.res, tc.home, away); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func substitution(minute float64, teamID string, in, out player.Player) match.Event {
	return match.Event{
		Minute:     minute,
		Type:       match.EventSubstitution,
		TeamID:     teamID,
		PlayerID:   in.ID,
		PlayerName: in.Name,
		SubIn:      in.Name,
		SubOut:     out.Name,
	}
}

func TestValidate_RejectsBrokenTimelines(t *testing.T) {
	home := testSide("CRO", "Croatia", 78)
	away := testSide("MAR", "Morocco", 77)
	res := simulate(t, 5, home, away)
	events, err := Generate(newRand(5), res, home, away)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]match.Event) []match.Event
	}{
		{name: "final not last", mutate: func(ev []match.Event) []match.Event { return ev[:len(ev)-1] }},
		{name: "minutes decrease", mutate: func(ev []match.Event) []match.Event {
			ev[2].Minute = -1
			return ev
		}},
		{name: "extra goal", mutate: func(ev []match.Event) []match.Event {
			extra := match.Event{Minute: ev[1].Minute, Type: match.EventGoal, TeamID: home.TeamID}
			return append([]match.Event{ev[0], extra}, ev[1:]...)
		}},
		{name: "substitution for unknown team", mutate: func(ev []match.Event) []match.Event {
			sub := substitution(ev[1].Minute, "XXX", home.Bench[1], home.Starters[2])
			return append([]match.Event{ev[0], sub}, ev[1:]...)
		}},
		{name: "substituted player not in squad", mutate: func(ev []match.Event) []match.Event {
			sub := substitution(ev[1].Minute, away.TeamID, away.Bench[1], home.Starters[2])
			return append([]match.Event{ev[0], sub}, ev[1:]...)
		}},
		{name: "substitute from the other squad", mutate: func(ev []match.Event) []match.Event {
			sub := substitution(ev[1].Minute, home.TeamID, away.Bench[1], home.Starters[2])
			return append([]match.Event{ev[0], sub}, ev[1:]...)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			broken := tc.mutate(append([]match.Event(nil), events...))
			if err := Validate(broken, res, home, away); !errors.Is(err, ErrInvalidTimeline) {
				t.Fatalf("expected ErrInvalidTimeline, got %v", err)
			}
		})
	}
}
