package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	basecache "github.com/riskibarqy/nations-cup/internal/platform/cache"
)

type cachedByID[V any] struct {
	value  V
	exists bool
}

// TournamentRepository caches reads and drops the affected keys on write.
type TournamentRepository struct {
	next  tournament.Repository
	byID  *basecache.Store[cachedByID[tournament.Tournament]]
	lists *basecache.Store[[]tournament.Tournament]
}

func NewTournamentRepository(next tournament.Repository, ttl time.Duration) *TournamentRepository {
	return &TournamentRepository{
		next:  next,
		byID:  basecache.NewStore[cachedByID[tournament.Tournament]](ttl),
		lists: basecache.NewStore[[]tournament.Tournament](ttl),
	}
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	items, err := r.lists.GetOrLoad(ctx, "tournament:list", func(ctx context.Context) ([]tournament.Tournament, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	return append([]tournament.Tournament(nil), items...), nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	cached, err := r.byID.GetOrLoad(ctx, "tournament:id:"+tournamentID, func(ctx context.Context) (cachedByID[tournament.Tournament], error) {
		item, exists, err := r.next.GetByID(ctx, tournamentID)
		if err != nil {
			return cachedByID[tournament.Tournament]{}, err
		}
		return cachedByID[tournament.Tournament]{value: item, exists: exists}, nil
	})
	if err != nil {
		return tournament.Tournament{}, false, err
	}

	return cached.value, cached.exists, nil
}

func (r *TournamentRepository) Upsert(ctx context.Context, item tournament.Tournament) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}

	r.byID.Delete(ctx, "tournament:id:"+item.ID)
	r.lists.Delete(ctx, "tournament:list")
	return nil
}

// TeamRepository caches team reads. Squads are cloned on the way in and out
// so callers never share slices with the cache.
type TeamRepository struct {
	next  team.Repository
	byID  *basecache.Store[cachedByID[team.Team]]
	lists *basecache.Store[[]team.Team]
}

func NewTeamRepository(next team.Repository, ttl time.Duration) *TeamRepository {
	return &TeamRepository{
		next:  next,
		byID:  basecache.NewStore[cachedByID[team.Team]](ttl),
		lists: basecache.NewStore[[]team.Team](ttl),
	}
}

func (r *TeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]team.Team, error) {
	items, err := r.lists.GetOrLoad(ctx, teamListKey(tournamentID), func(ctx context.Context) ([]team.Team, error) {
		items, err := r.next.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		return cloneTeams(items), nil
	})
	if err != nil {
		return nil, err
	}

	return cloneTeams(items), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	cached, err := r.byID.GetOrLoad(ctx, teamKey(teamID), func(ctx context.Context) (cachedByID[team.Team], error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return cachedByID[team.Team]{}, err
		}
		return cachedByID[team.Team]{value: item.Clone(), exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	return cached.value.Clone(), cached.exists, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}

	r.invalidate(ctx, item)
	return nil
}

func (r *TeamRepository) UpsertMany(ctx context.Context, items []team.Team) error {
	if err := r.next.UpsertMany(ctx, items); err != nil {
		return err
	}

	for _, item := range items {
		r.invalidate(ctx, item)
	}
	return nil
}

func (r *TeamRepository) invalidate(ctx context.Context, item team.Team) {
	r.byID.Delete(ctx, teamKey(item.ID))
	r.lists.Delete(ctx, teamListKey(item.TournamentID))
}

func cloneTeams(items []team.Team) []team.Team {
	out := make([]team.Team, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

func teamKey(teamID string) string {
	return "team:id:" + teamID
}

func teamListKey(tournamentID string) string {
	return "team:tournament:" + tournamentID
}
