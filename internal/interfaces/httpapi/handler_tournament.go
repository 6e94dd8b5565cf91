package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	items, err := h.tournamentService.ListTournaments(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tournaments failed", "error", err)
		writeError(w, err)
		return
	}

	out := make([]tournamentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, tournamentToDTO(item))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	var req createTournamentRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.tournamentService.CreateTournament(ctx, usecase.CreateTournamentInput{Name: req.Name})
	if err != nil {
		h.logger.WarnContext(ctx, "create tournament failed", "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tournamentToDTO(item))
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournament")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	item, err := h.tournamentService.GetTournament(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) StartTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartTournament")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	item, err := h.tournamentService.StartTournament(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "start tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceRound")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	item, err := h.tournamentService.AdvanceRound(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "advance round failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) SimulateRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SimulateRound")
	defer span.End()

	var req simulateRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := pathID(r, "tournamentID")
	played, err := h.matchService.SimulateRound(ctx, tournamentID, match.SimulationType(req.Mode))
	if err != nil {
		h.logger.WarnContext(ctx, "simulate round failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matchesToDTO(played))
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	round := match.Round(r.URL.Query().Get("round"))
	items, err := h.matchService.ListMatches(ctx, tournamentID, round)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matchesToDTO(items))
}
