package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/avelier/club-ladder/internal/platform/logging"
	"github.com/avelier/club-ladder/internal/usecase"
)

type Handler struct {
	playerService *usecase.PlayerService
	seasonService *usecase.SeasonService
	matchService  *usecase.MatchService
	recalcService *usecase.RecalcService
	configService *usecase.ConfigService
	jobService    *usecase.JobService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	playerService *usecase.PlayerService,
	seasonService *usecase.SeasonService,
	matchService *usecase.MatchService,
	recalcService *usecase.RecalcService,
	configService *usecase.ConfigService,
	jobService *usecase.JobService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		playerService: playerService,
		seasonService: seasonService,
		matchService:  matchService,
		recalcService: recalcService,
		configService: configService,
		jobService:    jobService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
