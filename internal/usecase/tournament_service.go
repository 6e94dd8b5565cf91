package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/rating"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	idgen "github.com/riskibarqy/nations-cup/internal/platform/id"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type CreateTournamentInput struct {
	Name string
}

// InvalidationResult reports what an administrative correction undid.
type InvalidationResult struct {
	Tournament tournament.Tournament
	Match      match.Match
	Deleted    []string
}

type TournamentService struct {
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	matchRepo      match.Repository
	idGen          idgen.Generator
	locks          *TournamentLocks
	logger         *logging.Logger
	now            func() time.Time
}

func NewTournamentService(
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	idGen idgen.Generator,
	locks *TournamentLocks,
	logger *logging.Logger,
) *TournamentService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = NewTournamentLocks()
	}

	return &TournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		idGen:          idGen,
		locks:          locks,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.CreateTournament")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}

	tournamentID, err := s.idGen.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("generate tournament id: %w", err)
	}

	now := s.now().UTC()
	out := tournament.Tournament{
		ID:        tournamentID,
		Name:      input.Name,
		Stage:     bracket.StageRegistration,
		Bracket:   bracket.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := out.Validate(); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.tournamentRepo.Upsert(ctx, out); err != nil {
		recordSpanError(span, err)
		return tournament.Tournament{}, fmt.Errorf("upsert tournament: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament created", "tournament_id", out.ID, "name", out.Name)
	return out, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	item, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament by id: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	return item, nil
}

// ListTournaments returns every tournament, newest first.
func (s *TournamentService) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	items, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// StartTournament closes registration, seeds the bracket in registration
// order and creates the quarter-final fixtures.
func (s *TournamentService) StartTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.StartTournament",
		attribute.String("tournament.id", tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	ctx = logging.WithTournament(ctx, tournamentID)

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	item, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, err
	}
	if !item.AcceptsTeams() {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament %s already started", ErrConflict, item.ID)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, item.ID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("list teams by tournament: %w", err)
	}
	if len(teams) != bracket.TeamCount {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament needs %d teams, has %d", ErrConflict, bracket.TeamCount, len(teams))
	}
	sortByRegistration(teams)

	teamIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		if err := rating.ValidateTeam(t).Err(); err != nil {
			return tournament.Tournament{}, fmt.Errorf("team %s: %w", t.Country, err)
		}
		teamIDs = append(teamIDs, t.ID)
	}

	seeded, err := bracket.Seed(teamIDs)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("seed bracket: %w", err)
	}
	item.Bracket = seeded
	item.Stage = bracket.StageQuarterFinals

	if err := s.createRoundMatches(ctx, &item, match.RoundQuarterFinal); err != nil {
		recordSpanError(span, err)
		return tournament.Tournament{}, err
	}
	if err := s.saveTournament(ctx, &item); err != nil {
		return tournament.Tournament{}, err
	}

	s.logger.InfoContext(ctx, "tournament started", "tournament_id", item.ID, "teams", len(teamIDs))
	return item, nil
}

// AdvanceRound moves the current round's winners forward. It fails with
// bracket.ErrNotReady while any match of the round is unfinished.
func (s *TournamentService) AdvanceRound(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.AdvanceRound",
		attribute.String("tournament.id", tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	ctx = logging.WithTournament(ctx, tournamentID)

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	item, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, err
	}
	if item.Stage == bracket.StageCompleted {
		return item, nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, item.ID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("list matches by tournament: %w", err)
	}

	previous := item.Stage
	next, stage, err := bracket.Advance(item.Bracket, item.Stage, matches)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("advance bracket: %w", err)
	}
	item.Bracket = next
	item.Stage = stage

	if round, ok := stage.Round(); ok {
		if err := s.createRoundMatches(ctx, &item, round); err != nil {
			recordSpanError(span, err)
			return tournament.Tournament{}, err
		}
	}
	if err := s.saveTournament(ctx, &item); err != nil {
		return tournament.Tournament{}, err
	}

	if item.Stage == bracket.StageCompleted {
		s.logger.InfoContext(ctx, "tournament completed", "tournament_id", item.ID, "champion_id", item.ChampionID)
	} else {
		s.logger.InfoContext(ctx, "tournament round advanced",
			"tournament_id", item.ID,
			"from", previous,
			"to", item.Stage,
		)
	}

	return item, nil
}

// InvalidateMatch undoes a completed match: its statistics are rolled back,
// it returns to scheduled and every downstream slot and fixture it fed is
// cleared.
func (s *TournamentService) InvalidateMatch(ctx context.Context, matchID string) (InvalidationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.InvalidateMatch",
		attribute.String("match.id", matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return InvalidationResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, err := s.getMatch(ctx, matchID)
	if err != nil {
		return InvalidationResult{}, err
	}
	ctx = logging.WithMatch(ctx, m.TournamentID, m.ID)

	unlock := s.locks.Lock(m.TournamentID)
	defer unlock()

	// Reload under the lock, the match may have changed while waiting.
	m, err = s.getMatch(ctx, matchID)
	if err != nil {
		return InvalidationResult{}, err
	}
	if !m.IsCompleted() {
		return InvalidationResult{}, fmt.Errorf("%w: match %s is not completed", ErrConflict, m.ID)
	}

	item, err := s.GetTournament(ctx, m.TournamentID)
	if err != nil {
		return InvalidationResult{}, err
	}

	updated, inv, err := bracket.Invalidate(item.Bracket, m.ID)
	if err != nil {
		return InvalidationResult{}, fmt.Errorf("invalidate bracket: %w", err)
	}

	for _, detachedID := range inv.Detached {
		detached, exists, err := s.matchRepo.GetByID(ctx, detachedID)
		if err != nil {
			return InvalidationResult{}, fmt.Errorf("get match by id: %w", err)
		}
		if !exists {
			continue
		}
		if detached.IsCompleted() {
			if err := updateTeamStats(ctx, s.teamRepo, detached, -1); err != nil {
				return InvalidationResult{}, err
			}
		}
		if err := s.matchRepo.Delete(ctx, detachedID); err != nil {
			return InvalidationResult{}, fmt.Errorf("delete match: %w", err)
		}
	}

	if err := updateTeamStats(ctx, s.teamRepo, m, -1); err != nil {
		return InvalidationResult{}, err
	}
	m = m.Reset()
	if err := s.matchRepo.Upsert(ctx, m); err != nil {
		return InvalidationResult{}, fmt.Errorf("upsert match: %w", err)
	}

	item.Bracket = updated
	item.Stage = inv.Stage
	if err := s.saveTournament(ctx, &item); err != nil {
		return InvalidationResult{}, err
	}

	s.logger.WarnContext(ctx, "match invalidated",
		"tournament_id", item.ID,
		"match_id", m.ID,
		"round", inv.Round,
		"deleted_matches", len(inv.Detached),
	)

	return InvalidationResult{
		Tournament: item,
		Match:      m,
		Deleted:    inv.Detached,
	}, nil
}

// createRoundMatches creates a scheduled match for every slot of round that
// does not hold one yet.
func (s *TournamentService) createRoundMatches(ctx context.Context, item *tournament.Tournament, round match.Round) error {
	now := s.now().UTC()
	for _, slot := range item.Bracket.Slots(round) {
		if slot.MatchID != "" {
			continue
		}

		matchID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate match id: %w", err)
		}
		if err := item.Bracket.AttachMatch(round, slot.Index, matchID); err != nil {
			return fmt.Errorf("attach match to %s: %w", slot.Label(), err)
		}

		m := match.Match{
			ID:              matchID,
			TournamentID:    item.ID,
			Round:           round,
			BracketPosition: slot.Label(),
			Index:           slot.Index,
			Team1ID:         slot.Team1ID,
			Team2ID:         slot.Team2ID,
			Status:          match.StatusScheduled,
			CreatedAt:       now,
		}
		if err := s.matchRepo.Upsert(ctx, m); err != nil {
			return fmt.Errorf("upsert match: %w", err)
		}
	}
	return nil
}

func (s *TournamentService) saveTournament(ctx context.Context, item *tournament.Tournament) error {
	item.ChampionID = item.Bracket.ChampionID
	item.UpdatedAt = s.now().UTC()
	if err := s.tournamentRepo.Upsert(ctx, *item); err != nil {
		return fmt.Errorf("upsert tournament: %w", err)
	}
	return nil
}

func (s *TournamentService) getMatch(ctx context.Context, matchID string) (match.Match, error) {
	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return m, nil
}
