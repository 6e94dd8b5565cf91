package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/rating"
	"github.com/riskibarqy/nations-cup/internal/domain/simulation"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/timeline"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/random"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const defaultRegenerateWorkers = 4

type SimulateMatchInput struct {
	MatchID string
	// Mode is simulated or played. Played asks the commentator for text.
	Mode match.SimulationType
}

// RegenerateFailure names a match whose timeline could not be rebuilt.
type RegenerateFailure struct {
	MatchID string
	Error   string
}

type RegenerateSummary struct {
	TournamentID string
	Total        int
	Regenerated  int
	Failed       int
	Failures     []RegenerateFailure
}

// RoundAdvancer moves a tournament to its next round.
type RoundAdvancer interface {
	AdvanceRound(ctx context.Context, tournamentID string) (tournament.Tournament, error)
}

type MatchServiceConfig struct {
	AutoAdvance       bool
	RegenerateWorkers int
}

type MatchService struct {
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	matchRepo      match.Repository
	simulator      *simulation.Simulator
	random         *random.Source
	commentator    Commentator
	advancer       RoundAdvancer
	locks          *TournamentLocks
	cfg            MatchServiceConfig
	logger         *logging.Logger
	now            func() time.Time
}

func NewMatchService(
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	simulator *simulation.Simulator,
	randomSource *random.Source,
	commentator Commentator,
	advancer RoundAdvancer,
	locks *TournamentLocks,
	cfg MatchServiceConfig,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	if simulator == nil {
		simulator = simulation.NewDefault()
	}
	if locks == nil {
		locks = NewTournamentLocks()
	}
	if cfg.RegenerateWorkers <= 0 {
		cfg.RegenerateWorkers = defaultRegenerateWorkers
	}

	return &MatchService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		simulator:      simulator,
		random:         randomSource,
		commentator:    commentator,
		advancer:       advancer,
		locks:          locks,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// SimulateMatch decides a scheduled match, builds its timeline and records
// team statistics. Commentary failures never fail the match, it is stored as
// simulated instead.
func (s *MatchService) SimulateMatch(ctx context.Context, input SimulateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SimulateMatch",
		attribute.String("match.id", input.MatchID))
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	if input.MatchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	switch input.Mode {
	case "":
		input.Mode = match.SimulationSimulated
	case match.SimulationSimulated, match.SimulationPlayed:
	default:
		return match.Match{}, fmt.Errorf("%w: unknown simulation mode %q", ErrInvalidInput, input.Mode)
	}

	m, err := s.GetMatch(ctx, input.MatchID)
	if err != nil {
		return match.Match{}, err
	}
	if m.IsCompleted() {
		return match.Match{}, fmt.Errorf("%w: match %s is already completed", ErrConflict, m.ID)
	}
	ctx = logging.WithMatch(ctx, m.TournamentID, m.ID)

	item, err := s.getTournament(ctx, m.TournamentID)
	if err != nil {
		return match.Match{}, err
	}
	if _, ok := item.Bracket.SlotOfMatch(m.ID); !ok {
		return match.Match{}, fmt.Errorf("%w: match %s is not in the bracket", bracket.ErrBracketInconsistency, m.ID)
	}

	home, away, err := s.loadSides(ctx, m)
	if err != nil {
		return match.Match{}, err
	}
	for _, t := range []team.Team{home, away} {
		if err := rating.ValidateTeam(t).Err(); err != nil {
			return match.Match{}, fmt.Errorf("team %s: %w", t.Country, err)
		}
	}

	rng := s.random.ForKey(m.ID)
	res, err := s.simulator.Simulate(rng, simulation.Fixture{
		Team1: simulationSide(home),
		Team2: simulationSide(away),
	})
	if err != nil {
		recordSpanError(span, err)
		return match.Match{}, fmt.Errorf("simulate match: %w: %w", ErrInvalidInput, err)
	}

	events, err := timeline.Generate(rng, res, timelineSide(home), timelineSide(away))
	if err != nil {
		recordSpanError(span, err)
		return match.Match{}, fmt.Errorf("generate timeline: %w", err)
	}

	m.Team1Lineup = append([]string(nil), home.StartingEleven...)
	m.Team2Lineup = append([]string(nil), away.StartingEleven...)
	m.Result = &res
	m.Events = events
	m.SimulationType = match.SimulationSimulated
	if input.Mode == match.SimulationPlayed {
		m.Commentary, m.SimulationType = s.comment(ctx, m, home, away)
	}

	completed, err := s.complete(ctx, m)
	if err != nil {
		recordSpanError(span, err)
		return match.Match{}, err
	}

	s.logger.InfoContext(ctx, "match completed",
		"round", completed.Round,
		"score", fmt.Sprintf("%d-%d", res.Team1Score, res.Team2Score),
		"winner_id", res.WinnerID,
		"extra_time", res.WentToExtraTime,
		"penalties", res.WentToPenalties,
		"simulation_type", completed.SimulationType,
	)

	s.autoAdvance(ctx, completed.TournamentID)
	return completed, nil
}

// SimulateRound plays every scheduled match of the current round.
func (s *MatchService) SimulateRound(ctx context.Context, tournamentID string, mode match.SimulationType) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SimulateRound",
		attribute.String("tournament.id", tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	ctx = logging.WithTournament(ctx, tournamentID)

	item, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	round, ok := item.Stage.Round()
	if !ok {
		return nil, fmt.Errorf("%w: tournament %s has no round in play at stage %s", ErrConflict, item.ID, item.Stage)
	}

	matches, err := s.ListMatches(ctx, item.ID, round)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[match.Match]().
		WithContext(ctx).
		WithMaxGoroutines(match.MatchesInRound(round))
	for _, m := range matches {
		if m.IsCompleted() {
			continue
		}
		matchID := m.ID
		p.Go(func(ctx context.Context) (match.Match, error) {
			return s.SimulateMatch(ctx, SimulateMatchInput{MatchID: matchID, Mode: mode})
		})
	}

	played, err := p.Wait()
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("simulate round %s: %w", round, err)
	}
	sort.Slice(played, func(i, j int) bool { return played[i].Index < played[j].Index })

	return played, nil
}

// RegenerateEvents rebuilds the timeline of a completed match from its stored
// result and lineups. Commentary written for the old timeline is dropped.
func (s *MatchService) RegenerateEvents(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RegenerateEvents",
		attribute.String("match.id", matchID))
	defer span.End()

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !m.IsCompleted() {
		return match.Match{}, fmt.Errorf("%w: match %s is not completed", ErrConflict, m.ID)
	}
	ctx = logging.WithMatch(ctx, m.TournamentID, m.ID)

	home, away, err := s.loadSides(ctx, m)
	if err != nil {
		return match.Match{}, err
	}
	home = withLineup(home, m.Team1Lineup)
	away = withLineup(away, m.Team2Lineup)

	events, err := timeline.Generate(s.random.New(), *m.Result, timelineSide(home), timelineSide(away))
	if err != nil {
		recordSpanError(span, err)
		return match.Match{}, fmt.Errorf("regenerate timeline: %w", err)
	}

	unlock := s.locks.Lock(m.TournamentID)
	defer unlock()

	current, err := s.GetMatch(ctx, m.ID)
	if err != nil {
		return match.Match{}, err
	}
	if !current.IsCompleted() {
		return match.Match{}, fmt.Errorf("%w: match %s was invalidated during regeneration", ErrConflict, m.ID)
	}
	current.Events = events
	current.Commentary = nil
	current.SimulationType = match.SimulationSimulated
	if err := s.matchRepo.Upsert(ctx, current); err != nil {
		return match.Match{}, fmt.Errorf("upsert match: %w", err)
	}

	s.logger.InfoContext(ctx, "match events regenerated", "match_id", current.ID, "events", len(events))
	return current, nil
}

// RegenerateAllEvents rebuilds every completed match timeline of a tournament
// on a bounded worker pool. A failing match is reported, not fatal.
func (s *MatchService) RegenerateAllEvents(ctx context.Context, tournamentID string) (RegenerateSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RegenerateAllEvents",
		attribute.String("tournament.id", tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return RegenerateSummary{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	ctx = logging.WithTournament(ctx, tournamentID)
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return RegenerateSummary{}, err
	}

	matches, err := s.ListMatches(ctx, tournamentID, "")
	if err != nil {
		return RegenerateSummary{}, err
	}

	summary := RegenerateSummary{TournamentID: tournamentID}
	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.IsCompleted() {
			targets = append(targets, m.ID)
		}
	}
	summary.Total = len(targets)
	if len(targets) == 0 {
		return summary, nil
	}

	workerPool, err := ants.NewPool(s.cfg.RegenerateWorkers)
	if err != nil {
		return RegenerateSummary{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for _, matchID := range targets {
		matchID := matchID
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			_, err := s.RegenerateEvents(ctx, matchID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, RegenerateFailure{MatchID: matchID, Error: err.Error()})
				return
			}
			summary.Regenerated++
		}); err != nil {
			workers.Done()
			return RegenerateSummary{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].MatchID < summary.Failures[j].MatchID
	})
	if summary.Failed > 0 {
		s.logger.WarnContext(ctx, "some match timelines could not be regenerated",
			"tournament_id", tournamentID,
			"failed", summary.Failed,
			"total", summary.Total,
		)
	}

	return summary, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	return m, nil
}

// ListMatches returns tournament matches in bracket order, optionally for a
// single round.
func (s *MatchService) ListMatches(ctx context.Context, tournamentID string, round match.Round) ([]match.Match, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if round != "" && match.MatchesInRound(round) == 0 {
		return nil, fmt.Errorf("%w: unknown round %q", ErrInvalidInput, round)
	}

	items, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list matches by tournament: %w", err)
	}

	out := make([]match.Match, 0, len(items))
	for _, m := range items {
		if round == "" || m.Round == round {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return roundOrder(out[i].Round) < roundOrder(out[j].Round)
		}
		return out[i].Index < out[j].Index
	})

	return out, nil
}

// GetTimeline returns the stored events of a match. Scheduled matches have none.
func (s *MatchService) GetTimeline(ctx context.Context, matchID string) ([]match.Event, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Events == nil {
		return []match.Event{}, nil
	}
	return m.Events, nil
}

// complete stores the finished match and both teams' statistics while
// holding the tournament lock.
func (s *MatchService) complete(ctx context.Context, m match.Match) (match.Match, error) {
	unlock := s.locks.Lock(m.TournamentID)
	defer unlock()

	current, err := s.GetMatch(ctx, m.ID)
	if err != nil {
		return match.Match{}, err
	}
	if current.IsCompleted() {
		return match.Match{}, fmt.Errorf("%w: match %s is already completed", ErrConflict, m.ID)
	}

	completedAt := s.now().UTC()
	m.Status = match.StatusCompleted
	m.CompletedAt = &completedAt

	if err := s.matchRepo.Upsert(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("upsert match: %w", err)
	}
	if err := updateTeamStats(ctx, s.teamRepo, m, 1); err != nil {
		return match.Match{}, err
	}
	return m, nil
}

// comment asks the commentator for text and degrades to simulated on any failure.
func (s *MatchService) comment(ctx context.Context, m match.Match, home, away team.Team) ([]string, match.SimulationType) {
	if s.commentator == nil {
		return nil, match.SimulationSimulated
	}

	lines, err := s.commentator.Comment(ctx, CommentaryRequest{
		Match:  m,
		Home:   home,
		Away:   away,
		Result: *m.Result,
		Events: m.Events,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "commentary unavailable, storing match as simulated", "error", err)
		return nil, match.SimulationSimulated
	}
	if len(lines) == 0 {
		return nil, match.SimulationSimulated
	}
	return lines, match.SimulationPlayed
}

func (s *MatchService) autoAdvance(ctx context.Context, tournamentID string) {
	if !s.cfg.AutoAdvance || s.advancer == nil {
		return
	}
	if _, err := s.advancer.AdvanceRound(ctx, tournamentID); err != nil {
		if errors.Is(err, bracket.ErrNotReady) {
			return
		}
		s.logger.WarnContext(logging.WithTournament(ctx, tournamentID), "auto advance failed", "error", err)
	}
}

func (s *MatchService) loadSides(ctx context.Context, m match.Match) (team.Team, team.Team, error) {
	if m.Team1ID == "" || m.Team2ID == "" {
		return team.Team{}, team.Team{}, fmt.Errorf("%w: match %s has undecided teams", bracket.ErrNotReady, m.ID)
	}

	home, exists, err := s.teamRepo.GetByID(ctx, m.Team1ID)
	if err != nil {
		return team.Team{}, team.Team{}, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return team.Team{}, team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, m.Team1ID)
	}
	away, exists, err := s.teamRepo.GetByID(ctx, m.Team2ID)
	if err != nil {
		return team.Team{}, team.Team{}, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return team.Team{}, team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, m.Team2ID)
	}

	return home, away, nil
}

func (s *MatchService) getTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	item, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament by id: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}
	return item, nil
}

func simulationSide(t team.Team) simulation.Side {
	return simulation.Side{
		TeamID:  t.ID,
		Rating:  t.OverallRating,
		Players: t.Starters(),
	}
}

func timelineSide(t team.Team) timeline.Side {
	return timeline.Side{
		TeamID:   t.ID,
		Name:     t.Country,
		Rating:   t.OverallRating,
		Starters: t.Starters(),
		Bench:    t.Bench(),
	}
}

// withLineup swaps in the eleven that actually played, when recorded.
func withLineup(t team.Team, lineup []string) team.Team {
	if len(lineup) == 0 {
		return t
	}
	out := t.Clone()
	out.StartingEleven = append([]string(nil), lineup...)
	return out
}

func roundOrder(r match.Round) int {
	switch r {
	case match.RoundQuarterFinal:
		return 0
	case match.RoundSemiFinal:
		return 1
	default:
		return 2
	}
}
