package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := pathID(r, "matchID")
	item, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTimeline")
	defer span.End()

	matchID := pathID(r, "matchID")
	events, err := h.matchService.GetTimeline(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get timeline failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, events)
}

func (h *Handler) SimulateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SimulateMatch")
	defer span.End()

	var req simulateRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	matchID := pathID(r, "matchID")
	item, err := h.matchService.SimulateMatch(ctx, usecase.SimulateMatchInput{
		MatchID: matchID,
		Mode:    match.SimulationType(req.Mode),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "simulate match failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) RegenerateEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegenerateEvents")
	defer span.End()

	matchID := pathID(r, "matchID")
	item, err := h.matchService.RegenerateEvents(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "regenerate events failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) RegenerateAllEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegenerateAllEvents")
	defer span.End()

	tournamentID := pathID(r, "tournamentID")
	summary, err := h.matchService.RegenerateAllEvents(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "regenerate all events failed", "tournament_id", tournamentID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, regenerateSummaryToDTO(summary))
}

func (h *Handler) InvalidateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateMatch")
	defer span.End()

	matchID := pathID(r, "matchID")
	res, err := h.tournamentService.InvalidateMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "invalidate match failed", "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, invalidationDTO{
		Tournament: tournamentToDTO(res.Tournament),
		Match:      matchToDTO(res.Match),
		Deleted:    append([]string{}, res.Deleted...),
	})
}
