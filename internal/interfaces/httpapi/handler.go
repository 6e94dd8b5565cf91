package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

type Handler struct {
	teamService       *usecase.TeamService
	tournamentService *usecase.TournamentService
	matchService      *usecase.MatchService
	logger            *logging.Logger
	validator         *validator.Validate
	replay            ReplayConfig
}

func NewHandler(
	teamService *usecase.TeamService,
	tournamentService *usecase.TournamentService,
	matchService *usecase.MatchService,
	replay ReplayConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:       teamService,
		tournamentService: tournamentService,
		matchService:      matchService,
		logger:            logger,
		validator:         validator.New(),
		replay:            replay.normalize(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

const maxRequestBodyBytes = 1 << 20

// decodeRequest reads a JSON body into payload and validates it. An empty
// body is accepted when optional is set.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any, optional bool) error {
	var raw []byte
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
		}
		raw = bytes.TrimSpace(body)
	}

	if len(raw) == 0 {
		if !optional {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
	} else {
		decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(payload); err != nil {
			return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}
