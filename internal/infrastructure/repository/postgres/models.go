package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type tournamentTableModel struct {
	ID         int64          `db:"id"`
	PublicID   string         `db:"public_id"`
	Name       string         `db:"name"`
	Stage      string         `db:"stage"`
	Bracket    sql.NullString `db:"bracket"`
	ChampionID sql.NullString `db:"champion_team_public_id"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type teamTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	TournamentID   string         `db:"tournament_public_id"`
	Country        string         `db:"country"`
	Manager        string         `db:"manager"`
	StartingEleven pq.StringArray `db:"starting_eleven"`
	OverallRating  float64        `db:"overall_rating"`
	Played         int            `db:"played"`
	Wins           int            `db:"wins"`
	Draws          int            `db:"draws"`
	Losses         int            `db:"losses"`
	GoalsFor       int            `db:"goals_for"`
	GoalsAgainst   int            `db:"goals_against"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type playerTableModel struct {
	ID          int64  `db:"id"`
	PublicID    string `db:"public_id"`
	TeamID      string `db:"team_public_id"`
	Name        string `db:"name"`
	Position    string `db:"position"`
	RatingGK    int    `db:"rating_gk"`
	RatingDF    int    `db:"rating_df"`
	RatingMD    int    `db:"rating_md"`
	RatingAT    int    `db:"rating_at"`
	Goals       int    `db:"goals"`
	Appearances int    `db:"appearances"`
	IsCaptain   bool   `db:"is_captain"`
}

type matchTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	TournamentID    string         `db:"tournament_public_id"`
	Round           string         `db:"round"`
	BracketPosition string         `db:"bracket_position"`
	MatchIndex      int            `db:"match_index"`
	Team1ID         string         `db:"team1_public_id"`
	Team2ID         string         `db:"team2_public_id"`
	Team1Lineup     pq.StringArray `db:"team1_lineup"`
	Team2Lineup     pq.StringArray `db:"team2_lineup"`
	Status          string         `db:"status"`
	SimulationType  sql.NullString `db:"simulation_type"`
	Result          sql.NullString `db:"result"`
	Events          sql.NullString `db:"events"`
	Commentary      sql.NullString `db:"commentary"`
	CreatedAt       time.Time      `db:"created_at"`
	CompletedAt     *time.Time     `db:"completed_at"`
}
