package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
)

var ErrInvalidInput = errors.New("invalid simulation input")

const (
	regulationStart = 1
	regulationEnd   = 90
	extraTimeStart  = 91
	extraTimeEnd    = 120
)

// Side is one team as seen by the simulator. Players is the pool used for
// scorer and penalty taker attribution, usually the starting eleven.
type Side struct {
	TeamID  string
	Rating  float64
	Players []player.Player
}

type Fixture struct {
	Team1 Side
	Team2 Side
}

// Simulator decides knockout outcomes. It holds no per-call state and is safe
// for concurrent use as long as each call gets its own random source.
type Simulator struct {
	cfg Config
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &Simulator{cfg: cfg}, nil
}

// NewDefault returns a simulator using DefaultConfig.
func NewDefault() *Simulator {
	return &Simulator{cfg: DefaultConfig()}
}

func (s *Simulator) Config() Config {
	return s.cfg
}

// ExpectedGoals maps the rating differential to a regulation goal expectation.
func (s *Simulator) ExpectedGoals(selfRating, oppRating float64) float64 {
	xg := s.cfg.BaseExpectedGoals * math.Exp(s.cfg.RatingSensitivity*(selfRating-oppRating)/10)
	return math.Min(math.Max(xg, s.cfg.MinExpectedGoals), s.cfg.MaxExpectedGoals)
}

// ShootoutConversion is the per-kick success probability for a side.
func (s *Simulator) ShootoutConversion(selfRating, oppRating float64) float64 {
	p := s.cfg.ShootoutBaseConversion + (selfRating-oppRating)*s.cfg.ShootoutRatingWeight
	return math.Min(math.Max(p, s.cfg.ShootoutMinConversion), s.cfg.ShootoutMaxConversion)
}

// Simulate plays regulation and, when level, extra time and penalties.
func (s *Simulator) Simulate(rng *rand.Rand, f Fixture) (match.Result, error) {
	if err := s.validate(rng, f); err != nil {
		return match.Result{}, err
	}

	goals := s.drawPeriod(rng, f, 1, regulationStart, regulationEnd, false)
	return s.resolve(rng, f, goals), nil
}

// ResolveAfterRegulation finishes a fixture from a known regulation goal list.
// Extra time and penalties follow when the regulation score is level.
func (s *Simulator) ResolveAfterRegulation(rng *rand.Rand, f Fixture, regulation []match.GoalScorer) (match.Result, error) {
	if err := s.validate(rng, f); err != nil {
		return match.Result{}, err
	}
	type slot struct {
		teamID string
		minute int
	}
	seen := make(map[slot]bool, len(regulation))
	for _, g := range regulation {
		if g.TeamID != f.Team1.TeamID && g.TeamID != f.Team2.TeamID {
			return match.Result{}, fmt.Errorf("%w: goal credited to unknown team %q", ErrInvalidInput, g.TeamID)
		}
		if g.Minute < regulationStart || g.Minute > regulationEnd || g.IsExtraTime {
			return match.Result{}, fmt.Errorf("%w: regulation goal at minute %d", ErrInvalidInput, g.Minute)
		}
		key := slot{teamID: g.TeamID, minute: g.Minute}
		if seen[key] {
			return match.Result{}, fmt.Errorf("%w: team %q scores twice at minute %d", ErrInvalidInput, g.TeamID, g.Minute)
		}
		seen[key] = true
	}

	goals := append([]match.GoalScorer(nil), regulation...)
	sortGoals(goals, f.Team1.TeamID)
	return s.resolve(rng, f, goals), nil
}

func (s *Simulator) resolve(rng *rand.Rand, f Fixture, goals []match.GoalScorer) match.Result {
	res := match.Result{}
	if count(goals, f.Team1.TeamID) == count(goals, f.Team2.TeamID) {
		res.WentToExtraTime = true
		extra := s.drawPeriod(rng, f, s.cfg.ExtraTimeFactor, extraTimeStart, extraTimeEnd, true)
		goals = append(goals, extra...)
	}

	res.GoalScorers = goals
	res.Team1Score = count(goals, f.Team1.TeamID)
	res.Team2Score = count(goals, f.Team2.TeamID)

	switch {
	case res.Team1Score > res.Team2Score:
		res.WinnerID = f.Team1.TeamID
	case res.Team2Score > res.Team1Score:
		res.WinnerID = f.Team2.TeamID
	default:
		ps := s.shootout(rng, f)
		res.WentToPenalties = true
		res.PenaltyShootout = &ps
		res.WinnerID = f.Team1.TeamID
		if ps.Team2Score > ps.Team1Score {
			res.WinnerID = f.Team2.TeamID
		}
	}

	return res
}

func (s *Simulator) validate(rng *rand.Rand, f Fixture) error {
	if rng == nil {
		return fmt.Errorf("%w: random source is required", ErrInvalidInput)
	}
	if f.Team1.TeamID == "" || f.Team2.TeamID == "" {
		return fmt.Errorf("%w: both team ids are required", ErrInvalidInput)
	}
	if f.Team1.TeamID == f.Team2.TeamID {
		return fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	}
	for _, side := range []Side{f.Team1, f.Team2} {
		if len(side.Players) == 0 {
			return fmt.Errorf("%w: team %s has an empty squad", ErrInvalidInput, side.TeamID)
		}
		outfield := 0
		for _, p := range side.Players {
			if p.ID == "" || !p.Position.Valid() {
				return fmt.Errorf("%w: team %s has a malformed player %q", ErrInvalidInput, side.TeamID, p.ID)
			}
			if p.Position != player.PositionGoalkeeper {
				outfield++
			}
		}
		if outfield == 0 {
			return fmt.Errorf("%w: team %s has no eligible scorers", ErrInvalidInput, side.TeamID)
		}
	}

	return nil
}

// drawPeriod samples goals for both sides within [from, to].
func (s *Simulator) drawPeriod(rng *rand.Rand, f Fixture, factor float64, from, to int, extraTime bool) []match.GoalScorer {
	out := make([]match.GoalScorer, 0, 4)
	sides := [2]struct{ self, opp Side }{{f.Team1, f.Team2}, {f.Team2, f.Team1}}
	for _, sd := range sides {
		lambda := s.ExpectedGoals(sd.self.Rating, sd.opp.Rating) * factor
		n := poisson(rng, lambda, s.cfg.MaxGoalsPerSide)
		for _, minute := range distinctMinutes(rng, n, from, to) {
			out = append(out, s.attribute(rng, sd.self, sd.opp, minute, extraTime))
		}
	}
	sortGoals(out, f.Team1.TeamID)
	return out
}

func (s *Simulator) attribute(rng *rand.Rand, self, opp Side, minute int, extraTime bool) match.GoalScorer {
	g := match.GoalScorer{
		TeamID:      self.TeamID,
		Minute:      minute,
		IsExtraTime: extraTime,
	}

	roll := rng.Float64()
	switch {
	case roll < s.cfg.OwnGoalChance:
		if p, ok := pickWeighted(rng, opp.Players, ownGoalWeight); ok {
			g.PlayerID, g.PlayerName, g.IsOwnGoal = p.ID, p.Name, true
			return g
		}
	case roll < s.cfg.OwnGoalChance+s.cfg.PenaltyGoalChance:
		taker := penaltyOrder(self.Players)[0]
		g.PlayerID, g.PlayerName, g.IsPenalty = taker.ID, taker.Name, true
		return g
	}

	p, ok := pickWeighted(rng, self.Players, scorerWeight)
	if !ok {
		p = penaltyOrder(self.Players)[0]
	}
	g.PlayerID, g.PlayerName = p.ID, p.Name
	return g
}

var positionScoringWeight = map[player.Position]float64{
	player.PositionAttacker:   6,
	player.PositionMidfielder: 3,
	player.PositionDefender:   1,
	player.PositionGoalkeeper: 0,
}

func scorerWeight(p player.Player) float64 {
	return positionScoringWeight[p.Position] * float64(p.Ratings.AT)
}

func ownGoalWeight(p player.Player) float64 {
	switch p.Position {
	case player.PositionDefender:
		return 6
	case player.PositionMidfielder:
		return 2
	case player.PositionGoalkeeper:
		return 1
	default:
		return 0.5
	}
}

func pickWeighted(rng *rand.Rand, pool []player.Player, weight func(player.Player) float64) (player.Player, bool) {
	var total float64
	for _, p := range pool {
		total += weight(p)
	}
	if total <= 0 {
		return player.Player{}, false
	}

	target := rng.Float64() * total
	for _, p := range pool {
		target -= weight(p)
		if target < 0 {
			return p, true
		}
	}
	for i := len(pool) - 1; i >= 0; i-- {
		if weight(pool[i]) > 0 {
			return pool[i], true
		}
	}
	return player.Player{}, false
}

// penaltyOrder ranks takers by finishing, outfield players first.
func penaltyOrder(pool []player.Player) []player.Player {
	out := append([]player.Player(nil), pool...)
	sort.SliceStable(out, func(i, j int) bool {
		gi := out[i].Position == player.PositionGoalkeeper
		gj := out[j].Position == player.PositionGoalkeeper
		if gi != gj {
			return !gi
		}
		return out[i].Ratings.AT > out[j].Ratings.AT
	})
	return out
}

func (s *Simulator) shootout(rng *rand.Rand, f Fixture) match.PenaltyShootout {
	sides := [2]Side{f.Team1, f.Team2}
	conversion := [2]float64{
		s.ShootoutConversion(f.Team1.Rating, f.Team2.Rating),
		s.ShootoutConversion(f.Team2.Rating, f.Team1.Rating),
	}
	takers := [2][]player.Player{penaltyOrder(f.Team1.Players), penaltyOrder(f.Team2.Players)}

	var (
		score [2]int
		taken [2]int
		kicks = make([]match.PenaltyKick, 0, 2*s.cfg.ShootoutKicks+2)
	)
	kick := func(side int) {
		taker := takers[side][taken[side]%len(takers[side])]
		scored := rng.Float64() < conversion[side]
		taken[side]++
		if scored {
			score[side]++
		}
		kicks = append(kicks, match.PenaltyKick{
			Order:      len(kicks) + 1,
			TeamID:     sides[side].TeamID,
			PlayerID:   taker.ID,
			PlayerName: taker.Name,
			Scored:     scored,
		})
	}
	decided := func() bool {
		left0 := s.cfg.ShootoutKicks - taken[0]
		left1 := s.cfg.ShootoutKicks - taken[1]
		return score[0]+left0 < score[1] || score[1]+left1 < score[0]
	}

	done := false
	for round := 0; round < s.cfg.ShootoutKicks && !done; round++ {
		for side := 0; side < 2; side++ {
			kick(side)
			if decided() {
				done = true
				break
			}
		}
	}
	for score[0] == score[1] {
		kick(0)
		kick(1)
	}

	return match.PenaltyShootout{
		Team1Score: score[0],
		Team2Score: score[1],
		Kicks:      kicks,
	}
}

// poisson samples with Knuth's method, capped at ceiling.
func poisson(rng *rand.Rand, lambda float64, ceiling int) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit || k >= ceiling {
			return k
		}
		k++
	}
}

// distinctMinutes draws n minutes in [from, to], nudging forward on collision.
func distinctMinutes(rng *rand.Rand, n, from, to int) []int {
	span := to - from + 1
	if n > span {
		n = span
	}
	used := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		m := from + rng.IntN(span)
		for {
			if _, taken := used[m]; !taken {
				break
			}
			m++
			if m > to {
				m = from
			}
		}
		used[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

func sortGoals(goals []match.GoalScorer, team1ID string) {
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].Minute != goals[j].Minute {
			return goals[i].Minute < goals[j].Minute
		}
		return goals[i].TeamID == team1ID && goals[j].TeamID != team1ID
	})
}

func count(goals []match.GoalScorer, teamID string) int {
	n := 0
	for _, g := range goals {
		if g.TeamID == teamID {
			n++
		}
	}
	return n
}
