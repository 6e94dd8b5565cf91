package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
)

type TournamentRepository struct {
	mu     sync.RWMutex
	items  map[string]tournament.Tournament
	orders []string
}

func NewTournamentRepository(items []tournament.Tournament) *TournamentRepository {
	byID := make(map[string]tournament.Tournament, len(items))
	orders := make([]string, 0, len(items))

	for _, t := range items {
		byID[t.ID] = t
		orders = append(orders, t.ID)
	}

	return &TournamentRepository{
		items:  byID,
		orders: orders,
	}
}

func (r *TournamentRepository) List(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[tournamentID]
	if !ok {
		return tournament.Tournament{}, false, nil
	}

	return t, true, nil
}

func (r *TournamentRepository) Upsert(_ context.Context, item tournament.Tournament) error {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		r.orders = append(r.orders, id)
	}
	r.items[id] = item

	return nil
}
