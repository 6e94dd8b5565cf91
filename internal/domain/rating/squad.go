package rating

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

var (
	firstNames = []string{
		"Luca", "Mateo", "Jonas", "Kenji", "Amadou", "Diego", "Tomas", "Oscar", "Yusuf", "Elias",
		"Rafael", "Hugo", "Nikola", "Sami", "Kwame", "Andrei", "Felix", "Marco", "Ivan", "Lars",
		"Joao", "Emil", "Karim", "Pablo", "Theo", "Arjun", "Milan", "Dario", "Leon", "Omar",
	}
	lastNames = []string{
		"Silva", "Moreau", "Keller", "Tanaka", "Diallo", "Romero", "Novak", "Berg", "Aydin", "Costa",
		"Jansen", "Petrov", "Mensah", "Ricci", "Lindqvist", "Herrera", "Kovac", "Ferreira", "Dubois", "Okafor",
		"Schmidt", "Alves", "Nakamura", "Varga", "Hansen", "Rossi", "Mendes", "Larsen", "Popescu", "Garcia",
	}
)

// squadOrder lists natural positions for a full squad following team.SquadTarget.
func squadOrder() []player.Position {
	out := make([]player.Position, 0, team.SquadSize)
	for _, pos := range player.AllPositions {
		for i := 0; i < team.SquadTarget[pos]; i++ {
			out = append(out, pos)
		}
	}
	return out
}

// GenerateSquad builds a full squad for teamID. playerIDs must hold one id per squad slot.
// The best outfield player is made captain.
func GenerateSquad(rng *rand.Rand, teamID string, playerIDs []string) ([]player.Player, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidInput)
	}
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if len(playerIDs) != team.SquadSize {
		return nil, fmt.Errorf("%w: expected %d player ids, got %d", ErrInvalidInput, team.SquadSize, len(playerIDs))
	}

	usedNames := make(map[string]struct{}, team.SquadSize)
	squad := make([]player.Player, 0, team.SquadSize)
	for i, pos := range squadOrder() {
		ratings, err := GeneratePlayerRatings(pos, rng)
		if err != nil {
			return nil, err
		}
		squad = append(squad, player.Player{
			ID:       playerIDs[i],
			TeamID:   teamID,
			Name:     uniqueName(rng, usedNames),
			Position: pos,
			Ratings:  ratings,
		})
	}

	captain := -1
	for i, p := range squad {
		if p.Position == player.PositionGoalkeeper {
			continue
		}
		if captain < 0 || p.NaturalRating() > squad[captain].NaturalRating() {
			captain = i
		}
	}
	squad[captain].IsCaptain = true

	return squad, nil
}

func uniqueName(rng *rand.Rand, used map[string]struct{}) string {
	for attempt := 0; ; attempt++ {
		name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		if attempt > 20 {
			name = fmt.Sprintf("%s %d", name, attempt)
		}
		if _, ok := used[name]; !ok {
			used[name] = struct{}{}
			return name
		}
	}
}

// Formation433 is the default shape used when picking a starting eleven.
var Formation433 = map[player.Position]int{
	player.PositionGoalkeeper: 1,
	player.PositionDefender:   4,
	player.PositionMidfielder: 3,
	player.PositionAttacker:   3,
}

// PickStartingEleven selects the highest rated players per slot of a 4-3-3.
// Missing outfield slots are filled from the best remaining outfield players.
func PickStartingEleven(squad []player.Player) []string {
	ranked := append([]player.Player(nil), squad...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NaturalRating() > ranked[j].NaturalRating()
	})

	picked := make(map[string]struct{}, team.StartingElevenLen)
	out := make([]string, 0, team.StartingElevenLen)
	for _, pos := range player.AllPositions {
		need := Formation433[pos]
		for _, p := range ranked {
			if need == 0 {
				break
			}
			if p.Position != pos {
				continue
			}
			picked[p.ID] = struct{}{}
			out = append(out, p.ID)
			need--
		}
	}

	for _, p := range ranked {
		if len(out) >= team.StartingElevenLen {
			break
		}
		if _, ok := picked[p.ID]; ok || p.Position == player.PositionGoalkeeper {
			continue
		}
		picked[p.ID] = struct{}{}
		out = append(out, p.ID)
	}

	return out
}
