package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
)

const tournamentColumns = `id, public_id, name, stage, bracket, champion_team_public_id, created_at, updated_at`

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
FROM tournaments
ORDER BY id`

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		item, err := tournamentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	query := `SELECT ` + tournamentColumns + `
FROM tournaments
WHERE public_id = $1`

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, tournamentID); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("get tournament: %w", err)
	}

	item, err := tournamentFromRow(row)
	if err != nil {
		return tournament.Tournament{}, false, err
	}
	return item, true, nil
}

func (r *TournamentRepository) Upsert(ctx context.Context, item tournament.Tournament) error {
	const query = `
INSERT INTO tournaments (public_id, name, stage, bracket, champion_team_public_id, created_at, updated_at)
VALUES (:public_id, :name, :stage, :bracket, :champion_team_public_id, :created_at, :updated_at)
ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    stage = EXCLUDED.stage,
    bracket = EXCLUDED.bracket,
    champion_team_public_id = EXCLUDED.champion_team_public_id,
    updated_at = EXCLUDED.updated_at`

	encodedBracket, err := encodeJSON(item.Bracket)
	if err != nil {
		return fmt.Errorf("encode tournament bracket: %w", err)
	}

	stmt, args, err := sqlx.Named(query, map[string]any{
		"public_id":               item.ID,
		"name":                    item.Name,
		"stage":                   string(item.Stage),
		"bracket":                 encodedBracket,
		"champion_team_public_id": nullString(item.ChampionID),
		"created_at":              item.CreatedAt,
		"updated_at":              item.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind upsert tournament query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("upsert tournament: %w", err)
	}

	return nil
}

func tournamentFromRow(row tournamentTableModel) (tournament.Tournament, error) {
	b := bracket.New()
	if err := decodeJSON(row.Bracket, &b); err != nil {
		return tournament.Tournament{}, fmt.Errorf("tournament %s bracket: %w", row.PublicID, err)
	}

	return tournament.Tournament{
		ID:         row.PublicID,
		Name:       row.Name,
		Stage:      bracket.Stage(row.Stage),
		Bracket:    b,
		ChampionID: row.ChampionID.String,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}
