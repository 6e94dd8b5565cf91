package httpapi

import (
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

type createTournamentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type registerTeamRequest struct {
	Country string `json:"country" validate:"required,max=80"`
	Manager string `json:"manager" validate:"omitempty,max=120"`
}

type startingElevenRequest struct {
	PlayerIDs []string `json:"playerIds" validate:"required,len=11,unique,dive,required"`
}

type captainRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
}

type simulateRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=simulated played"`
}

type tournamentDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Stage      bracket.Stage   `json:"stage"`
	Bracket    bracket.Bracket `json:"bracket"`
	ChampionID string          `json:"championId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type playerDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Position      player.Position `json:"position"`
	Ratings       player.Ratings  `json:"ratings"`
	NaturalRating int             `json:"naturalRating"`
	Goals         int             `json:"goals"`
	Appearances   int             `json:"appearances"`
	IsCaptain     bool            `json:"isCaptain"`
	IsStarter     bool            `json:"isStarter"`
}

type teamDTO struct {
	ID             string      `json:"id"`
	TournamentID   string      `json:"tournamentId"`
	Country        string      `json:"country"`
	Manager        string      `json:"manager,omitempty"`
	OverallRating  float64     `json:"overallRating"`
	StartingEleven []string    `json:"startingEleven"`
	Squad          []playerDTO `json:"squad"`
	Stats          team.Stats  `json:"stats"`
}

type matchDTO struct {
	ID              string               `json:"id"`
	TournamentID    string               `json:"tournamentId"`
	Round           match.Round          `json:"round"`
	BracketPosition string               `json:"bracketPosition"`
	Team1ID         string               `json:"team1Id"`
	Team2ID         string               `json:"team2Id"`
	Status          match.Status         `json:"status"`
	SimulationType  match.SimulationType `json:"simulationType,omitempty"`
	Result          *match.Result        `json:"result,omitempty"`
	EventCount      int                  `json:"eventCount"`
	Commentary      []string             `json:"commentary,omitempty"`
	CompletedAt     *time.Time           `json:"completedAt,omitempty"`
}

type invalidationDTO struct {
	Tournament tournamentDTO `json:"tournament"`
	Match      matchDTO      `json:"match"`
	Deleted    []string      `json:"deletedMatchIds"`
}

type regenerateFailureDTO struct {
	MatchID string `json:"matchId"`
	Error   string `json:"error"`
}

type regenerateSummaryDTO struct {
	TournamentID string                 `json:"tournamentId"`
	Total        int                    `json:"total"`
	Regenerated  int                    `json:"regenerated"`
	Failed       int                    `json:"failed"`
	Failures     []regenerateFailureDTO `json:"failures"`
}

func tournamentToDTO(v tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:         v.ID,
		Name:       v.Name,
		Stage:      v.Stage,
		Bracket:    v.Bracket,
		ChampionID: v.ChampionID,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func teamToDTO(v team.Team) teamDTO {
	starting := make(map[string]struct{}, len(v.StartingEleven))
	for _, id := range v.StartingEleven {
		starting[id] = struct{}{}
	}

	squad := make([]playerDTO, 0, len(v.Squad))
	for _, p := range v.Squad {
		_, isStarter := starting[p.ID]
		squad = append(squad, playerDTO{
			ID:            p.ID,
			Name:          p.Name,
			Position:      p.Position,
			Ratings:       p.Ratings,
			NaturalRating: p.NaturalRating(),
			Goals:         p.Goals,
			Appearances:   p.Appearances,
			IsCaptain:     p.IsCaptain,
			IsStarter:     isStarter,
		})
	}

	return teamDTO{
		ID:             v.ID,
		TournamentID:   v.TournamentID,
		Country:        v.Country,
		Manager:        v.Manager,
		OverallRating:  v.OverallRating,
		StartingEleven: append([]string{}, v.StartingEleven...),
		Squad:          squad,
		Stats:          v.Stats,
	}
}

func matchToDTO(v match.Match) matchDTO {
	return matchDTO{
		ID:              v.ID,
		TournamentID:    v.TournamentID,
		Round:           v.Round,
		BracketPosition: v.BracketPosition,
		Team1ID:         v.Team1ID,
		Team2ID:         v.Team2ID,
		Status:          v.Status,
		SimulationType:  v.SimulationType,
		Result:          v.Result,
		EventCount:      len(v.Events),
		Commentary:      v.Commentary,
		CompletedAt:     v.CompletedAt,
	}
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func regenerateSummaryToDTO(v usecase.RegenerateSummary) regenerateSummaryDTO {
	failures := make([]regenerateFailureDTO, 0, len(v.Failures))
	for _, f := range v.Failures {
		failures = append(failures, regenerateFailureDTO{MatchID: f.MatchID, Error: f.Error})
	}
	return regenerateSummaryDTO{
		TournamentID: v.TournamentID,
		Total:        v.Total,
		Regenerated:  v.Regenerated,
		Failed:       v.Failed,
		Failures:     failures,
	}
}
