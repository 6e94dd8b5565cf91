package timeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
)

var (
	ErrInvalidInput    = errors.New("invalid timeline input")
	ErrInvalidTimeline = errors.New("invalid match timeline")
)

const (
	halftimeMinute   = 45
	regulationMinute = 90
	extraTimeMinute  = 120

	fillerPerMinute       = 0.3
	regulationSubs        = 3
	extraTimeSubs         = 1
	firstSubstitutionFrom = 55
)

// Side is a team as rendered in the timeline.
type Side struct {
	TeamID   string
	Name     string
	Rating   float64
	Starters []player.Player
	Bench    []player.Player
}

func (s Side) hasPlayer(id string) bool {
	for _, p := range s.Starters {
		if p.ID == id {
			return true
		}
	}
	for _, p := range s.Bench {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s Side) hasPlayerNamed(name string) bool {
	for _, group := range [][]player.Player{s.Starters, s.Bench} {
		for _, p := range group {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}

// Ordering of events sharing a minute.
const (
	rankKickoff = iota
	rankPlay
	rankHalftime
	rankExtratime
	rankFulltime
	rankPenalties
	rankShootout
	rankFinal
)

type entry struct {
	event match.Event
	rank  int
	// filler entries get their players resolved while walking the timeline
	filler bool
}

// Generate expands a decided result into an ordered event timeline for
// home (team1) against away (team2). Goals keep the minutes of the result;
// filler events are random and carry no score effect.
func Generate(rng *rand.Rand, res match.Result, home, away Side) ([]match.Event, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidInput)
	}
	if home.TeamID == "" || away.TeamID == "" || home.TeamID == away.TeamID {
		return nil, fmt.Errorf("%w: two distinct team ids are required", ErrInvalidInput)
	}
	if len(home.Starters) == 0 || len(away.Starters) == 0 {
		return nil, fmt.Errorf("%w: both sides need starting players", ErrInvalidInput)
	}
	if err := res.Validate(home.TeamID, away.TeamID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	g := &generator{
		rng:  rng,
		res:  res,
		home: newSideState(home),
		away: newSideState(away),
	}
	g.protect()

	entries := g.skeleton()
	entries = append(entries, g.goals()...)
	entries = append(entries, g.fillers()...)
	entries = append(entries, g.substitutions()...)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].event.Minute != entries[j].event.Minute {
			return entries[i].event.Minute < entries[j].event.Minute
		}
		return entries[i].rank < entries[j].rank
	})

	events := g.walk(entries)
	spreadMinutes(events)

	if err := Validate(events, res, home, away); err != nil {
		return nil, err
	}
	return events, nil
}

type generator struct {
	rng  *rand.Rand
	res  match.Result
	home *sideState
	away *sideState
}

func (g *generator) endMinute() int {
	if g.res.WentToExtraTime {
		return extraTimeMinute
	}
	return regulationMinute
}

func (g *generator) state(teamID string) (self, opp *sideState) {
	if teamID == g.home.side.TeamID {
		return g.home, g.away
	}
	return g.away, g.home
}

// protect marks every player needed later by a goal or a kick so they are
// never substituted off or sent off.
func (g *generator) protect() {
	for _, goal := range g.res.GoalScorers {
		self, opp := g.state(goal.TeamID)
		if goal.IsOwnGoal {
			opp.protected[goal.PlayerID] = struct{}{}
			continue
		}
		self.protected[goal.PlayerID] = struct{}{}
	}
	if ps := g.res.PenaltyShootout; ps != nil {
		for _, k := range ps.Kicks {
			self, _ := g.state(k.TeamID)
			self.protected[k.PlayerID] = struct{}{}
		}
	}
}

func (g *generator) skeleton() []entry {
	home, away := g.home.side.Name, g.away.side.Name
	out := []entry{
		{rank: rankKickoff, event: match.Event{
			Minute:      0,
			Type:        match.EventKickoff,
			Description: fmt.Sprintf("Kick-off: %s vs %s", home, away),
		}},
		{rank: rankHalftime, event: match.Event{
			Minute: halftimeMinute,
			Type:   match.EventHalftime,
		}},
	}

	if g.res.WentToExtraTime {
		out = append(out, entry{rank: rankExtratime, event: match.Event{
			Minute:      regulationMinute,
			Type:        match.EventExtratime,
			Description: "Level after 90 minutes, extra time begins",
		}})
	}
	out = append(out, entry{rank: rankFulltime, event: match.Event{
		Minute: float64(g.endMinute()),
		Type:   match.EventFulltime,
	}})

	if ps := g.res.PenaltyShootout; g.res.WentToPenalties && ps != nil {
		out = append(out, entry{rank: rankPenalties, event: match.Event{
			Minute:      extraTimeMinute,
			Type:        match.EventPenalties,
			Description: "Still level after extra time, the tie goes to penalties",
		}})
		var tally [2]int
		for _, k := range ps.Kicks {
			side := 0
			if k.TeamID == g.away.side.TeamID {
				side = 1
			}
			verb := "misses"
			if k.Scored {
				verb = "scores"
				tally[side]++
			}
			out = append(out, entry{rank: rankShootout, event: match.Event{
				Minute:      extraTimeMinute,
				Type:        match.EventPenaltyKick,
				TeamID:      k.TeamID,
				PlayerID:    k.PlayerID,
				PlayerName:  k.PlayerName,
				Description: fmt.Sprintf("Shootout: %s %s (%d-%d)", k.PlayerName, verb, tally[0], tally[1]),
			}})
		}
	}

	out = append(out, entry{rank: rankFinal, event: match.Event{
		Minute: float64(g.endMinute()),
		Type:   match.EventFinal,
	}})
	return out
}

func (g *generator) goals() []entry {
	out := make([]entry, 0, len(g.res.GoalScorers)*2)
	for _, goal := range g.res.GoalScorers {
		self, _ := g.state(goal.TeamID)
		minute := float64(goal.Minute)

		if goal.IsPenalty {
			out = append(out, entry{rank: rankPlay, event: match.Event{
				Minute:      minute - 0.02,
				Type:        match.EventPenaltyKick,
				TeamID:      goal.TeamID,
				PlayerID:    goal.PlayerID,
				PlayerName:  goal.PlayerName,
				Description: fmt.Sprintf("Penalty to %s, %s steps up", self.side.Name, goal.PlayerName),
			}})
		}

		ev := match.Event{
			Minute:     minute,
			Type:       match.EventGoal,
			TeamID:     goal.TeamID,
			PlayerID:   goal.PlayerID,
			PlayerName: goal.PlayerName,
		}
		switch {
		case goal.IsOwnGoal:
			ev.Type = match.EventOwnGoal
			ev.Description = fmt.Sprintf("Own goal by %s, credited to %s", goal.PlayerName, self.side.Name)
		case goal.IsPenalty:
			ev.Description = fmt.Sprintf("GOAL! %s converts the penalty for %s", goal.PlayerName, self.side.Name)
		default:
			ev.Description = fmt.Sprintf("GOAL! %s scores for %s", goal.PlayerName, self.side.Name)
		}
		out = append(out, entry{rank: rankPlay, event: ev})
	}
	return out
}

type fillerWeight struct {
	typ    match.EventType
	weight float64
}

var fillerWeights = []fillerWeight{
	{match.EventShotOnTarget, 14},
	{match.EventShotOffTarget, 16},
	{match.EventSave, 10},
	{match.EventCornerKick, 12},
	{match.EventFreeKick, 10},
	{match.EventFoul, 16},
	{match.EventOffside, 7},
	{match.EventYellowCard, 6},
	{match.EventRedCard, 0.6},
}

func (g *generator) pickFillerType() match.EventType {
	var total float64
	for _, fw := range fillerWeights {
		total += fw.weight
	}
	target := g.rng.Float64() * total
	for _, fw := range fillerWeights {
		target -= fw.weight
		if target < 0 {
			return fw.typ
		}
	}
	return fillerWeights[len(fillerWeights)-1].typ
}

// playWindows are the integer minute ranges filler may occupy. They leave
// the halftime and extra time break minutes clear.
func (g *generator) playWindows() [][2]int {
	windows := [][2]int{{1, 44}, {46, 89}}
	if g.res.WentToExtraTime {
		windows = append(windows, [2]int{91, 104}, [2]int{106, 119})
	}
	return windows
}

// fractionalMinute keeps filler off whole minutes so it never collides with goals.
func (g *generator) fractionalMinute(from, to int) float64 {
	whole := from + g.rng.IntN(to-from+1)
	return float64(whole) + float64(5+g.rng.IntN(91))/100
}

func (g *generator) fillers() []entry {
	windows := g.playWindows()
	playMinutes := 0
	for _, w := range windows {
		playMinutes += w[1] - w[0] + 1
	}
	n := int(math.Round(float64(playMinutes)*fillerPerMinute)) - 3 + g.rng.IntN(7)

	homeShare := 0.5
	if total := g.home.side.Rating + g.away.side.Rating; total > 0 {
		homeShare = g.home.side.Rating / total
	}

	out := make([]entry, 0, n)
	for i := 0; i < n; i++ {
		target := g.rng.IntN(playMinutes)
		var minute float64
		for _, w := range windows {
			size := w[1] - w[0] + 1
			if target < size {
				minute = g.fractionalMinute(w[0], w[1])
				break
			}
			target -= size
		}

		teamID := g.away.side.TeamID
		if g.rng.Float64() < homeShare {
			teamID = g.home.side.TeamID
		}
		out = append(out, entry{rank: rankPlay, filler: true, event: match.Event{
			Minute: minute,
			Type:   g.pickFillerType(),
			TeamID: teamID,
		}})
	}
	return out
}

func (g *generator) substitutions() []entry {
	out := make([]entry, 0, 2*(regulationSubs+extraTimeSubs))
	for _, st := range []*sideState{g.home, g.away} {
		if len(st.side.Bench) == 0 {
			continue
		}
		for i := 0; i < regulationSubs; i++ {
			out = append(out, entry{rank: rankPlay, filler: true, event: match.Event{
				Minute: g.fractionalMinute(firstSubstitutionFrom, regulationMinute-2),
				Type:   match.EventSubstitution,
				TeamID: st.side.TeamID,
			}})
		}
		if g.res.WentToExtraTime {
			for i := 0; i < extraTimeSubs; i++ {
				out = append(out, entry{rank: rankPlay, filler: true, event: match.Event{
					Minute: g.fractionalMinute(extraTimeMinute-29, extraTimeMinute-16),
					Type:   match.EventSubstitution,
					TeamID: st.side.TeamID,
				}})
			}
		}
	}
	return out
}

// walk resolves filler players in chronological order and attaches the
// running score. Filler that cannot be staffed is dropped.
func (g *generator) walk(entries []entry) []match.Event {
	events := make([]match.Event, 0, len(entries))
	var score match.ScoreSnapshot

	for _, e := range entries {
		ev := e.event
		if e.filler {
			var ok bool
			ev, ok = g.resolveFiller(ev)
			if !ok {
				continue
			}
		}

		if ev.Type.IsScoring() {
			if ev.TeamID == g.home.side.TeamID {
				score.Team1++
			} else {
				score.Team2++
			}
		}

		switch ev.Type {
		case match.EventHalftime:
			ev.Description = fmt.Sprintf("Half-time: %s %d-%d %s", g.home.side.Name, score.Team1, score.Team2, g.away.side.Name)
		case match.EventFulltime:
			ev.Description = fmt.Sprintf("Full-time: %s %d-%d %s", g.home.side.Name, score.Team1, score.Team2, g.away.side.Name)
		case match.EventFinal:
			ev.Description = g.finalDescription()
		case match.EventGoal, match.EventOwnGoal:
			ev.Description = fmt.Sprintf("%s (%d-%d)", ev.Description, score.Team1, score.Team2)
		}

		snapshot := score
		ev.Score = &snapshot
		events = append(events, ev)
	}
	return events
}

func (g *generator) finalDescription() string {
	winner := g.home
	if g.res.WinnerID == g.away.side.TeamID {
		winner = g.away
	}
	switch {
	case g.res.WentToPenalties && g.res.PenaltyShootout != nil:
		return fmt.Sprintf("Final whistle: %s advance %d-%d on penalties", winner.side.Name, g.res.PenaltyShootout.Team1Score, g.res.PenaltyShootout.Team2Score)
	case g.res.WentToExtraTime:
		return fmt.Sprintf("Final whistle: %s win %d-%d after extra time", winner.side.Name, g.res.Team1Score, g.res.Team2Score)
	default:
		return fmt.Sprintf("Final whistle: %s win %d-%d", winner.side.Name, g.res.Team1Score, g.res.Team2Score)
	}
}

func (g *generator) resolveFiller(ev match.Event) (match.Event, bool) {
	self, opp := g.state(ev.TeamID)

	switch ev.Type {
	case match.EventSubstitution:
		out, ok := self.pick(g.rng, self.substitutable)
		if !ok {
			return ev, false
		}
		in, ok := self.nextFromBench(g.rng)
		if !ok {
			return ev, false
		}
		self.substitute(out, in)
		ev.PlayerID, ev.PlayerName = in.ID, in.Name
		ev.SubIn, ev.SubOut = in.Name, out.Name
		ev.Description = fmt.Sprintf("Substitution for %s: %s replaces %s", self.side.Name, in.Name, out.Name)
		return ev, true

	case match.EventSave:
		keeper, ok := self.keeper()
		if !ok {
			return ev, false
		}
		shooter, _ := opp.pick(g.rng, opp.outfield)
		ev.PlayerID, ev.PlayerName = keeper.ID, keeper.Name
		ev.Description = fmt.Sprintf("%s denies %s with a fine save", keeper.Name, shooter.Name)
		if shooter.ID == "" {
			ev.Description = fmt.Sprintf("%s makes a comfortable save", keeper.Name)
		}
		return ev, true

	case match.EventYellowCard:
		p, ok := self.pick(g.rng, self.outfield)
		if !ok {
			return ev, false
		}
		if self.yellows[p.ID] {
			if _, protected := self.protected[p.ID]; protected {
				return ev, false
			}
			self.sendOff(p.ID)
			ev.Type = match.EventRedCard
			ev.PlayerID, ev.PlayerName = p.ID, p.Name
			ev.Description = fmt.Sprintf("Second yellow for %s (%s), they are sent off", p.Name, self.side.Name)
			return ev, true
		}
		self.yellows[p.ID] = true
		ev.PlayerID, ev.PlayerName = p.ID, p.Name
		ev.Description = fmt.Sprintf("Yellow card for %s (%s)", p.Name, self.side.Name)
		return ev, true

	case match.EventRedCard:
		p, ok := self.pick(g.rng, self.substitutable)
		if !ok {
			return ev, false
		}
		self.sendOff(p.ID)
		ev.PlayerID, ev.PlayerName = p.ID, p.Name
		ev.Description = fmt.Sprintf("Straight red card for %s (%s)", p.Name, self.side.Name)
		return ev, true
	}

	p, ok := self.pick(g.rng, self.outfield)
	if !ok {
		return ev, false
	}
	ev.PlayerID, ev.PlayerName = p.ID, p.Name
	switch ev.Type {
	case match.EventShotOnTarget:
		ev.Description = fmt.Sprintf("%s forces the keeper into action for %s", p.Name, self.side.Name)
	case match.EventShotOffTarget:
		ev.Description = fmt.Sprintf("%s fires wide for %s", p.Name, self.side.Name)
	case match.EventCornerKick:
		ev.Description = fmt.Sprintf("Corner to %s, %s to take", self.side.Name, p.Name)
	case match.EventFreeKick:
		ev.Description = fmt.Sprintf("Free kick to %s in a promising area", self.side.Name)
	case match.EventFoul:
		ev.Description = fmt.Sprintf("Foul by %s (%s)", p.Name, self.side.Name)
	case match.EventOffside:
		ev.Description = fmt.Sprintf("%s is caught offside", p.Name)
	}
	return ev, true
}

// spreadMinutes makes minutes strictly increasing by nudging ties forward
// in hundredths. Order is already final so the sequence stays sorted.
func spreadMinutes(events []match.Event) {
	for i := 1; i < len(events); i++ {
		if events[i].Minute <= events[i-1].Minute {
			events[i].Minute = math.Round((events[i-1].Minute+0.01)*100) / 100
		}
	}
}
