package usecase

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/random"
)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

// sequentialIDGenerator issues prefix-1, prefix-2, ...
type sequentialIDGenerator struct {
	prefix string
	next   atomic.Int64
}

func (g *sequentialIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1)), nil
}

type harness struct {
	tournamentRepo *memory.TournamentRepository
	teamRepo       *memory.TeamRepository
	matchRepo      *memory.MatchRepository
	teams          *TeamService
	tournaments    *TournamentService
	matches        *MatchService
	locks          *TournamentLocks
	ids            *sequentialIDGenerator
	source         *random.Source
}

func newHarness(t *testing.T, commentator Commentator, cfg MatchServiceConfig) *harness {
	t.Helper()

	h := &harness{
		tournamentRepo: memory.NewTournamentRepository(nil),
		teamRepo:       memory.NewTeamRepository(nil),
		matchRepo:      memory.NewMatchRepository(),
	}

	ids := &sequentialIDGenerator{prefix: "id"}
	source := random.NewSource(42)
	locks := NewTournamentLocks()
	logger := logging.NewNop()

	clock := time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	now := func() time.Time {
		return clock.Add(time.Duration(ticks.Add(1)) * time.Second)
	}

	h.locks = locks
	h.ids = ids
	h.source = source

	h.teams = NewTeamService(h.tournamentRepo, h.teamRepo, ids, source, locks, logger)
	h.teams.now = now
	h.tournaments = NewTournamentService(h.tournamentRepo, h.teamRepo, h.matchRepo, ids, locks, logger)
	h.tournaments.now = now
	h.matches = NewMatchService(h.tournamentRepo, h.teamRepo, h.matchRepo, nil, source, commentator, h.tournaments, locks, cfg, logger)
	h.matches.now = now

	return h
}

// createTournament registers count seed nations into a new tournament.
func (h *harness) createTournament(t *testing.T, count int) (tournament.Tournament, []team.Team) {
	t.Helper()

	item, err := h.tournaments.CreateTournament(t.Context(), CreateTournamentInput{Name: "Nations Cup"})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	teams := make([]team.Team, 0, count)
	for _, nation := range memory.SeedNations()[:count] {
		registered, err := h.teams.RegisterTeam(t.Context(), RegisterTeamInput{
			TournamentID: item.ID,
			Country:      nation.Country,
			Manager:      nation.Manager,
		})
		if err != nil {
			t.Fatalf("register %s: %v", nation.Country, err)
		}
		teams = append(teams, registered)
	}

	return item, teams
}

func (h *harness) startedTournament(t *testing.T) tournament.Tournament {
	t.Helper()

	item, _ := h.createTournament(t, 8)
	started, err := h.tournaments.StartTournament(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("start tournament: %v", err)
	}
	return started
}
