package rating

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
)

const (
	MinRating = 40
	MaxRating = 99
)

var ErrInvalidInput = errors.New("invalid rating input")

type band struct {
	lo int
	hi int
}

func (b band) draw(rng *rand.Rand) int {
	return clamp(b.lo+rng.IntN(b.hi-b.lo+1), MinRating, MaxRating)
}

var (
	naturalBand = band{lo: 68, hi: 95}
	// Outfield skills overlap slightly with the natural band so a few players come out versatile.
	outfieldBand = band{lo: 45, hi: 72}
	// Keeping is a specialist skill: outfielders rarely rate well in goal and keepers rarely outfield.
	specialistBand = band{lo: 40, hi: 55}
)

// GeneratePlayerRatings draws the four position ratings for a player whose
// natural position is pos. The natural position comes from a higher band.
func GeneratePlayerRatings(pos player.Position, rng *rand.Rand) (player.Ratings, error) {
	if !pos.Valid() {
		return player.Ratings{}, fmt.Errorf("%w: %w: %q", ErrInvalidInput, player.ErrUnknownPosition, pos)
	}
	if rng == nil {
		return player.Ratings{}, fmt.Errorf("%w: random source is required", ErrInvalidInput)
	}

	var out player.Ratings
	for _, p := range player.AllPositions {
		var value int
		switch {
		case p == pos:
			value = naturalBand.draw(rng)
		case p == player.PositionGoalkeeper || pos == player.PositionGoalkeeper:
			value = specialistBand.draw(rng)
		default:
			value = outfieldBand.draw(rng)
		}
		setRating(&out, p, value)
	}

	return out, nil
}

func setRating(r *player.Ratings, pos player.Position, value int) {
	switch pos {
	case player.PositionGoalkeeper:
		r.GK = value
	case player.PositionDefender:
		r.DF = value
	case player.PositionMidfielder:
		r.MD = value
	case player.PositionAttacker:
		r.AT = value
	}
}

// Bench players count at this weight relative to a starter.
const benchWeight = 0.15

// CalculateTeamRating aggregates natural-position ratings into a single
// strength number. Starters weigh 1, bench players benchWeight. Without a
// starting eleven every squad member counts equally.
func CalculateTeamRating(squad []player.Player, startingIDs []string) float64 {
	if len(squad) == 0 {
		return 0
	}

	starting := make(map[string]struct{}, len(startingIDs))
	for _, id := range startingIDs {
		starting[id] = struct{}{}
	}

	var weighted, weights float64
	for _, p := range squad {
		w := benchWeight
		if len(starting) == 0 {
			w = 1
		} else if _, ok := starting[p.ID]; ok {
			w = 1
		}
		weighted += w * float64(p.NaturalRating())
		weights += w
	}
	if weights == 0 {
		return 0
	}

	return round1(weighted / weights)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
