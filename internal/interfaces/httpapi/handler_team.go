package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nations-cup/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	items, err := h.teamService.ListTeams(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamToDTO(item))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterTeam")
	defer span.End()

	var req registerTeamRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := pathID(r, "tournamentID")
	item, err := h.teamService.RegisterTeam(ctx, usecase.RegisterTeamInput{
		TournamentID: tournamentID,
		Country:      req.Country,
		Manager:      req.Manager,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register team failed", "tournament_id", tournamentID, "country", req.Country, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, teamToDTO(item))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := pathID(r, "teamID")
	item, err := h.teamService.GetTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) SetStartingEleven(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetStartingEleven")
	defer span.End()

	var req startingElevenRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	teamID := pathID(r, "teamID")
	item, err := h.teamService.SetStartingEleven(ctx, teamID, req.PlayerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "set starting eleven failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) SetCaptain(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetCaptain")
	defer span.End()

	var req captainRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	teamID := pathID(r, "teamID")
	item, err := h.teamService.SetCaptain(ctx, teamID, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "set captain failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) RefreshSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshSquad")
	defer span.End()

	teamID := pathID(r, "teamID")
	item, err := h.teamService.RefreshSquad(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh squad failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, teamToDTO(item))
}
