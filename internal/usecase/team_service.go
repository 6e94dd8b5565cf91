package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/rating"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	idgen "github.com/riskibarqy/nations-cup/internal/platform/id"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/random"
	"go.opentelemetry.io/otel/attribute"
)

// RegisterTeamInput is the incoming payload for registering a nation.
type RegisterTeamInput struct {
	TournamentID string
	Country      string
	Manager      string
}

type TeamService struct {
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	idGen          idgen.Generator
	random         *random.Source
	locks          *TournamentLocks
	logger         *logging.Logger
	now            func() time.Time
}

func NewTeamService(
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	idGen idgen.Generator,
	randomSource *random.Source,
	locks *TournamentLocks,
	logger *logging.Logger,
) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = NewTournamentLocks()
	}

	return &TeamService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		idGen:          idGen,
		random:         randomSource,
		locks:          locks,
		logger:         logger,
		now:            time.Now,
	}
}

// RegisterTeam adds a nation with a freshly generated squad. Registration is
// only open before the tournament starts and closes at bracket.TeamCount.
func (s *TeamService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.RegisterTeam",
		attribute.String("tournament.id", input.TournamentID))
	defer span.End()

	input.TournamentID = strings.TrimSpace(input.TournamentID)
	input.Country = strings.TrimSpace(input.Country)
	input.Manager = strings.TrimSpace(input.Manager)

	if input.TournamentID == "" {
		return team.Team{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if input.Country == "" {
		return team.Team{}, fmt.Errorf("%w: country is required", ErrInvalidInput)
	}

	// The cap and the country check only hold if nothing registers in between.
	unlock := s.locks.Lock(input.TournamentID)
	defer unlock()

	item, err := s.getTournament(ctx, input.TournamentID)
	if err != nil {
		return team.Team{}, err
	}
	if !item.AcceptsTeams() {
		return team.Team{}, fmt.Errorf("%w: tournament %s is no longer accepting teams", ErrConflict, item.ID)
	}

	existing, err := s.teamRepo.ListByTournament(ctx, item.ID)
	if err != nil {
		return team.Team{}, fmt.Errorf("list teams by tournament: %w", err)
	}
	if len(existing) >= bracket.TeamCount {
		return team.Team{}, fmt.Errorf("%w: tournament %s already has %d teams", ErrConflict, item.ID, bracket.TeamCount)
	}
	for _, t := range existing {
		if strings.EqualFold(t.Country, input.Country) {
			return team.Team{}, fmt.Errorf("%w: country %s is already registered", ErrConflict, input.Country)
		}
	}

	teamID, err := s.idGen.NewID()
	if err != nil {
		return team.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	now := s.now().UTC()
	out := team.Team{
		ID:           teamID,
		TournamentID: item.ID,
		Country:      input.Country,
		Manager:      input.Manager,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.fillSquad(&out); err != nil {
		recordSpanError(span, err)
		return team.Team{}, err
	}
	if err := out.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.teamRepo.Upsert(ctx, out); err != nil {
		recordSpanError(span, err)
		return team.Team{}, fmt.Errorf("upsert team: %w", err)
	}

	s.logger.InfoContext(ctx, "team registered",
		"tournament_id", out.TournamentID,
		"team_id", out.ID,
		"country", out.Country,
		"overall_rating", out.OverallRating,
	)

	return out, nil
}

// SetStartingEleven replaces the starting eleven after checking it against
// the squad. Every violation is reported at once.
func (s *TeamService) SetStartingEleven(ctx context.Context, teamID string, playerIDs []string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.SetStartingEleven",
		attribute.String("team.id", teamID))
	defer span.End()

	item, unlock, err := s.lockEditableTeam(ctx, teamID, false)
	if err != nil {
		return team.Team{}, err
	}
	defer unlock()

	ids := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		ids = append(ids, strings.TrimSpace(id))
	}

	report := rating.ValidateTeamComposition(item.Squad, ids)
	if err := report.Err(); err != nil {
		return team.Team{}, fmt.Errorf("set starting eleven: %w", err)
	}

	item.StartingEleven = ids
	return s.save(ctx, item, "starting eleven updated")
}

// SetCaptain hands the armband to playerID, which must be in the squad.
func (s *TeamService) SetCaptain(ctx context.Context, teamID, playerID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.SetCaptain",
		attribute.String("team.id", teamID))
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return team.Team{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	item, unlock, err := s.lockEditableTeam(ctx, teamID, false)
	if err != nil {
		return team.Team{}, err
	}
	defer unlock()

	found := false
	for i := range item.Squad {
		item.Squad[i].IsCaptain = item.Squad[i].ID == playerID
		found = found || item.Squad[i].IsCaptain
	}
	if !found {
		return team.Team{}, fmt.Errorf("%w: player %s is not in the squad of team %s", ErrInvalidInput, playerID, item.ID)
	}

	report := rating.ValidateTeam(item)
	if err := report.Err(); err != nil {
		return team.Team{}, fmt.Errorf("set captain: %w", err)
	}

	return s.save(ctx, item, "captain updated")
}

// RefreshSquad regenerates the whole squad. Only allowed during registration
// so no played match references the old players.
func (s *TeamService) RefreshSquad(ctx context.Context, teamID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.RefreshSquad",
		attribute.String("team.id", teamID))
	defer span.End()

	item, unlock, err := s.lockEditableTeam(ctx, teamID, true)
	if err != nil {
		return team.Team{}, err
	}
	defer unlock()

	if err := s.fillSquad(&item); err != nil {
		recordSpanError(span, err)
		return team.Team{}, err
	}

	return s.save(ctx, item, "squad refreshed")
}

func (s *TeamService) GetTeam(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	return item, nil
}

// ListTeams returns the tournament's teams in registration order.
func (s *TeamService) ListTeams(ctx context.Context, tournamentID string) ([]team.Team, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	items, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list teams by tournament: %w", err)
	}
	sortByRegistration(items)

	return items, nil
}

func (s *TeamService) fillSquad(item *team.Team) error {
	playerIDs, err := idgen.NewIDs(s.idGen, team.SquadSize)
	if err != nil {
		return fmt.Errorf("generate player ids: %w", err)
	}

	squad, err := rating.GenerateSquad(s.random.New(), item.ID, playerIDs)
	if err != nil {
		if errors.Is(err, rating.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return fmt.Errorf("generate squad: %w", err)
	}

	item.Squad = squad
	item.StartingEleven = rating.PickStartingEleven(squad)
	item.OverallRating = rating.CalculateTeamRating(item.Squad, item.StartingEleven)
	return nil
}

func (s *TeamService) save(ctx context.Context, item team.Team, msg string) (team.Team, error) {
	item.OverallRating = rating.CalculateTeamRating(item.Squad, item.StartingEleven)
	item.UpdatedAt = s.now().UTC()

	if err := s.teamRepo.Upsert(ctx, item); err != nil {
		return team.Team{}, fmt.Errorf("upsert team: %w", err)
	}

	s.logger.InfoContext(ctx, msg,
		"tournament_id", item.TournamentID,
		"team_id", item.ID,
		"overall_rating", item.OverallRating,
	)

	return item, nil
}

// lockEditableTeam loads a team for mutation while holding its tournament
// lock, so edits never interleave with registration or match stats. Lineup
// changes stay open until the tournament is completed. Squad changes close
// once it starts. The caller must run the returned unlock.
func (s *TeamService) lockEditableTeam(ctx context.Context, teamID string, registrationOnly bool) (team.Team, func(), error) {
	found, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, nil, err
	}

	unlock := s.locks.Lock(found.TournamentID)
	item, err := s.getEditableTeam(ctx, found.ID, registrationOnly)
	if err != nil {
		unlock()
		return team.Team{}, nil, err
	}
	return item, unlock, nil
}

func (s *TeamService) getEditableTeam(ctx context.Context, teamID string, registrationOnly bool) (team.Team, error) {
	item, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}

	owner, err := s.getTournament(ctx, item.TournamentID)
	if err != nil {
		return team.Team{}, err
	}
	if registrationOnly && !owner.AcceptsTeams() {
		return team.Team{}, fmt.Errorf("%w: tournament %s has already started", ErrConflict, owner.ID)
	}
	if owner.Stage == bracket.StageCompleted {
		return team.Team{}, fmt.Errorf("%w: tournament %s is completed", ErrConflict, owner.ID)
	}

	return item.Clone(), nil
}

func (s *TeamService) getTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	item, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament by id: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	return item, nil
}

func sortByRegistration(items []team.Team) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
