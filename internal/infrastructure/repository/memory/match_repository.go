package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.Match
	// insertion order per tournament
	matchesByTournament map[string][]string
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:               make(map[string]match.Match),
		matchesByTournament: make(map[string][]string),
	}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}

	return item.Clone(), true, nil
}

func (r *MatchRepository) ListByTournament(_ context.Context, tournamentID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.matchesByTournament[tournamentID]
	out := make([]match.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].Clone())
	}

	return out, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) error {
	tournamentID := strings.TrimSpace(item.TournamentID)
	matchID := strings.TrimSpace(item.ID)
	if tournamentID == "" || matchID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[matchID]; !ok {
		r.matchesByTournament[tournamentID] = append(r.matchesByTournament[tournamentID], matchID)
	}
	r.items[matchID] = item.Clone()

	return nil
}

func (r *MatchRepository) Delete(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[matchID]
	if !ok {
		return nil
	}
	delete(r.items, matchID)

	ids := r.matchesByTournament[item.TournamentID]
	for i, id := range ids {
		if id == matchID {
			r.matchesByTournament[item.TournamentID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}

	return nil
}
