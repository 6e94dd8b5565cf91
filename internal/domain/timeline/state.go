package timeline

import (
	"math/rand/v2"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
)

// sideState tracks who is on the pitch while the timeline is walked.
type sideState struct {
	side      Side
	onPitch   []player.Player
	bench     []player.Player
	yellows   map[string]bool
	protected map[string]struct{}
}

func newSideState(side Side) *sideState {
	bench := make([]player.Player, 0, len(side.Bench))
	for _, p := range side.Bench {
		if p.Position != player.PositionGoalkeeper {
			bench = append(bench, p)
		}
	}
	return &sideState{
		side:      side,
		onPitch:   append([]player.Player(nil), side.Starters...),
		bench:     bench,
		yellows:   make(map[string]bool),
		protected: make(map[string]struct{}),
	}
}

func (s *sideState) outfield(p player.Player) bool {
	return p.Position != player.PositionGoalkeeper
}

func (s *sideState) substitutable(p player.Player) bool {
	_, protected := s.protected[p.ID]
	return s.outfield(p) && !protected
}

func (s *sideState) keeper() (player.Player, bool) {
	for _, p := range s.onPitch {
		if p.Position == player.PositionGoalkeeper {
			return p, true
		}
	}
	return player.Player{}, false
}

func (s *sideState) pick(rng *rand.Rand, eligible func(player.Player) bool) (player.Player, bool) {
	candidates := make([]player.Player, 0, len(s.onPitch))
	for _, p := range s.onPitch {
		if eligible(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return player.Player{}, false
	}
	return candidates[rng.IntN(len(candidates))], true
}

func (s *sideState) nextFromBench(rng *rand.Rand) (player.Player, bool) {
	if len(s.bench) == 0 {
		return player.Player{}, false
	}
	i := rng.IntN(len(s.bench))
	p := s.bench[i]
	s.bench = append(s.bench[:i], s.bench[i+1:]...)
	return p, true
}

func (s *sideState) substitute(out, in player.Player) {
	for i, p := range s.onPitch {
		if p.ID == out.ID {
			s.onPitch[i] = in
			return
		}
	}
}

func (s *sideState) sendOff(playerID string) {
	for i, p := range s.onPitch {
		if p.ID == playerID {
			s.onPitch = append(s.onPitch[:i], s.onPitch[i+1:]...)
			return
		}
	}
}
