package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

type TeamRepository struct {
	mu                sync.RWMutex
	items             map[string]team.Team
	teamsByTournament map[string][]string
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	r := &TeamRepository{
		items:             make(map[string]team.Team, len(teams)),
		teamsByTournament: make(map[string][]string),
	}
	for _, item := range teams {
		r.put(item)
	}

	return r
}

func (r *TeamRepository) ListByTournament(_ context.Context, tournamentID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.teamsByTournament[tournamentID]
	out := make([]team.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].Clone())
	}

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}

	return item.Clone(), true, nil
}

func (r *TeamRepository) Upsert(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(item)
	return nil
}

func (r *TeamRepository) UpsertMany(_ context.Context, items []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.put(item)
	}
	return nil
}

// put stores a clone of item. Callers hold the write lock.
func (r *TeamRepository) put(item team.Team) {
	tournamentID := strings.TrimSpace(item.TournamentID)
	teamID := strings.TrimSpace(item.ID)
	if tournamentID == "" || teamID == "" {
		return
	}

	if _, ok := r.items[teamID]; !ok {
		r.teamsByTournament[tournamentID] = append(r.teamsByTournament[tournamentID], teamID)
	}
	r.items[teamID] = item.Clone()
}
