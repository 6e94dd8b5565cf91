package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

const teamColumns = `id, public_id, tournament_public_id, country, manager, starting_eleven, overall_rating,
    played, wins, draws, losses, goals_for, goals_against, created_at, updated_at`

const playerColumns = `id, public_id, team_public_id, name, position, rating_gk, rating_df, rating_md, rating_at,
    goals, appearances, is_captain`

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]team.Team, error) {
	query := `SELECT ` + teamColumns + `
FROM teams
WHERE tournament_public_id = $1
ORDER BY id`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, tournamentID); err != nil {
		return nil, fmt.Errorf("select teams by tournament: %w", err)
	}
	if len(rows) == 0 {
		return []team.Team{}, nil
	}

	teamIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		teamIDs = append(teamIDs, row.PublicID)
	}
	squads, err := r.loadSquads(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row, squads[row.PublicID]))
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query := `SELECT ` + teamColumns + `
FROM teams
WHERE public_id = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	squads, err := r.loadSquads(ctx, []string{row.PublicID})
	if err != nil {
		return team.Team{}, false, err
	}
	return teamFromRow(row, squads[row.PublicID]), true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) error {
	return r.UpsertMany(ctx, []team.Team{item})
}

// UpsertMany writes teams and their full squads in one transaction. Players
// missing from a squad are removed.
func (r *TeamRepository) UpsertMany(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		if err := upsertTeam(ctx, tx, item); err != nil {
			return err
		}
		if err := replaceSquad(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team upsert: %w", err)
	}
	return nil
}

func upsertTeam(ctx context.Context, tx *sqlx.Tx, item team.Team) error {
	const query = `
INSERT INTO teams (
    public_id, tournament_public_id, country, manager, starting_eleven, overall_rating,
    played, wins, draws, losses, goals_for, goals_against, created_at, updated_at
)
VALUES (
    :public_id, :tournament_public_id, :country, :manager, :starting_eleven, :overall_rating,
    :played, :wins, :draws, :losses, :goals_for, :goals_against, :created_at, :updated_at
)
ON CONFLICT (public_id)
DO UPDATE SET
    country = EXCLUDED.country,
    manager = EXCLUDED.manager,
    starting_eleven = EXCLUDED.starting_eleven,
    overall_rating = EXCLUDED.overall_rating,
    played = EXCLUDED.played,
    wins = EXCLUDED.wins,
    draws = EXCLUDED.draws,
    losses = EXCLUDED.losses,
    goals_for = EXCLUDED.goals_for,
    goals_against = EXCLUDED.goals_against,
    updated_at = EXCLUDED.updated_at`

	stmt, args, err := sqlx.Named(query, map[string]any{
		"public_id":            item.ID,
		"tournament_public_id": item.TournamentID,
		"country":              item.Country,
		"manager":              item.Manager,
		"starting_eleven":      pq.Array(item.StartingEleven),
		"overall_rating":       item.OverallRating,
		"played":               item.Stats.Played,
		"wins":                 item.Stats.Wins,
		"draws":                item.Stats.Draws,
		"losses":               item.Stats.Losses,
		"goals_for":            item.Stats.GoalsFor,
		"goals_against":        item.Stats.GoalsAgainst,
		"created_at":           item.CreatedAt,
		"updated_at":           item.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind upsert team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("upsert team %s: %w", item.ID, err)
	}
	return nil
}

func replaceSquad(ctx context.Context, tx *sqlx.Tx, item team.Team) error {
	const upsertPlayerQuery = `
INSERT INTO players (
    public_id, team_public_id, name, position, rating_gk, rating_df, rating_md, rating_at,
    goals, appearances, is_captain
)
VALUES (
    :public_id, :team_public_id, :name, :position, :rating_gk, :rating_df, :rating_md, :rating_at,
    :goals, :appearances, :is_captain
)
ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    position = EXCLUDED.position,
    rating_gk = EXCLUDED.rating_gk,
    rating_df = EXCLUDED.rating_df,
    rating_md = EXCLUDED.rating_md,
    rating_at = EXCLUDED.rating_at,
    goals = EXCLUDED.goals,
    appearances = EXCLUDED.appearances,
    is_captain = EXCLUDED.is_captain,
    updated_at = NOW()`

	keep := make([]string, 0, len(item.Squad))
	for _, p := range item.Squad {
		stmt, args, err := sqlx.Named(upsertPlayerQuery, playerTableModel{
			PublicID:    p.ID,
			TeamID:      item.ID,
			Name:        p.Name,
			Position:    string(p.Position),
			RatingGK:    p.Ratings.GK,
			RatingDF:    p.Ratings.DF,
			RatingMD:    p.Ratings.MD,
			RatingAT:    p.Ratings.AT,
			Goals:       p.Goals,
			Appearances: p.Appearances,
			IsCaptain:   p.IsCaptain,
		})
		if err != nil {
			return fmt.Errorf("bind upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), args...); err != nil {
			return fmt.Errorf("upsert player %s: %w", p.ID, err)
		}
		keep = append(keep, p.ID)
	}

	const pruneQuery = `
DELETE FROM players
WHERE team_public_id = $1
  AND NOT (public_id = ANY($2))`
	if _, err := tx.ExecContext(ctx, pruneQuery, item.ID, pq.Array(keep)); err != nil {
		return fmt.Errorf("prune squad of team %s: %w", item.ID, err)
	}
	return nil
}

func (r *TeamRepository) loadSquads(ctx context.Context, teamIDs []string) (map[string][]player.Player, error) {
	query := `SELECT ` + playerColumns + `
FROM players
WHERE team_public_id = ANY($1)
ORDER BY id`

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(teamIDs)); err != nil {
		return nil, fmt.Errorf("select players by teams: %w", err)
	}

	out := make(map[string][]player.Player, len(teamIDs))
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], player.Player{
			ID:       row.PublicID,
			TeamID:   row.TeamID,
			Name:     row.Name,
			Position: player.Position(row.Position),
			Ratings: player.Ratings{
				GK: row.RatingGK,
				DF: row.RatingDF,
				MD: row.RatingMD,
				AT: row.RatingAT,
			},
			Goals:       row.Goals,
			Appearances: row.Appearances,
			IsCaptain:   row.IsCaptain,
		})
	}
	return out, nil
}

func teamFromRow(row teamTableModel, squad []player.Player) team.Team {
	return team.Team{
		ID:             row.PublicID,
		TournamentID:   row.TournamentID,
		Country:        row.Country,
		Manager:        row.Manager,
		Squad:          squad,
		StartingEleven: []string(row.StartingEleven),
		OverallRating:  row.OverallRating,
		Stats: team.Stats{
			Played:       row.Played,
			Wins:         row.Wins,
			Draws:        row.Draws,
			Losses:       row.Losses,
			GoalsFor:     row.GoalsFor,
			GoalsAgainst: row.GoalsAgainst,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
