package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

const matchColumns = `id, public_id, tournament_public_id, round, bracket_position, match_index,
    team1_public_id, team2_public_id, team1_lineup, team2_lineup, status, simulation_type,
    result, events, commentary, created_at, completed_at`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query := `SELECT ` + matchColumns + `
FROM matches
WHERE public_id = $1`

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, matchID); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	item, err := matchFromRow(row)
	if err != nil {
		return match.Match{}, false, err
	}
	return item, true, nil
}

func (r *MatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]match.Match, error) {
	query := `SELECT ` + matchColumns + `
FROM matches
WHERE tournament_public_id = $1
ORDER BY id`

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, tournamentID); err != nil {
		return nil, fmt.Errorf("select matches by tournament: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	const query = `
INSERT INTO matches (
    public_id, tournament_public_id, round, bracket_position, match_index,
    team1_public_id, team2_public_id, team1_lineup, team2_lineup, status, simulation_type,
    result, events, commentary, created_at, completed_at
)
VALUES (
    :public_id, :tournament_public_id, :round, :bracket_position, :match_index,
    :team1_public_id, :team2_public_id, :team1_lineup, :team2_lineup, :status, :simulation_type,
    :result, :events, :commentary, :created_at, :completed_at
)
ON CONFLICT (public_id)
DO UPDATE SET
    team1_public_id = EXCLUDED.team1_public_id,
    team2_public_id = EXCLUDED.team2_public_id,
    team1_lineup = EXCLUDED.team1_lineup,
    team2_lineup = EXCLUDED.team2_lineup,
    status = EXCLUDED.status,
    simulation_type = EXCLUDED.simulation_type,
    result = EXCLUDED.result,
    events = EXCLUDED.events,
    commentary = EXCLUDED.commentary,
    completed_at = EXCLUDED.completed_at,
    updated_at = NOW()`

	var result any
	if item.Result != nil {
		result = item.Result
	}
	encodedResult, err := encodeJSON(result)
	if err != nil {
		return fmt.Errorf("encode match result: %w", err)
	}
	encodedEvents, err := encodeJSON(item.Events)
	if err != nil {
		return fmt.Errorf("encode match events: %w", err)
	}
	encodedCommentary, err := encodeJSON(item.Commentary)
	if err != nil {
		return fmt.Errorf("encode match commentary: %w", err)
	}

	stmt, args, err := sqlx.Named(query, map[string]any{
		"public_id":            item.ID,
		"tournament_public_id": item.TournamentID,
		"round":                string(item.Round),
		"bracket_position":     item.BracketPosition,
		"match_index":          item.Index,
		"team1_public_id":      item.Team1ID,
		"team2_public_id":      item.Team2ID,
		"team1_lineup":         pq.Array(item.Team1Lineup),
		"team2_lineup":         pq.Array(item.Team2Lineup),
		"status":               string(item.Status),
		"simulation_type":      nullString(string(item.SimulationType)),
		"result":               encodedResult,
		"events":               encodedEvents,
		"commentary":           encodedCommentary,
		"created_at":           item.CreatedAt,
		"completed_at":         item.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("bind upsert match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE public_id = $1`, matchID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

func matchFromRow(row matchTableModel) (match.Match, error) {
	item := match.Match{
		ID:              row.PublicID,
		TournamentID:    row.TournamentID,
		Round:           match.Round(row.Round),
		BracketPosition: row.BracketPosition,
		Index:           row.MatchIndex,
		Team1ID:         row.Team1ID,
		Team2ID:         row.Team2ID,
		Team1Lineup:     []string(row.Team1Lineup),
		Team2Lineup:     []string(row.Team2Lineup),
		Status:          match.Status(row.Status),
		SimulationType:  match.SimulationType(row.SimulationType.String),
		CreatedAt:       row.CreatedAt,
		CompletedAt:     row.CompletedAt,
	}

	if row.Result.Valid {
		var res match.Result
		if err := decodeJSON(row.Result, &res); err != nil {
			return match.Match{}, fmt.Errorf("match %s result: %w", row.PublicID, err)
		}
		item.Result = &res
	}
	if err := decodeJSON(row.Events, &item.Events); err != nil {
		return match.Match{}, fmt.Errorf("match %s events: %w", row.PublicID, err)
	}
	if err := decodeJSON(row.Commentary, &item.Commentary); err != nil {
		return match.Match{}, fmt.Errorf("match %s commentary: %w", row.PublicID, err)
	}
	return item, nil
}
