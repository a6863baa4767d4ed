package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/avelier/club-ladder/internal/usecase"
)

type createConfigRequest struct {
	Version              string   `json:"version" validate:"required,max=50"`
	Description          string   `json:"description" validate:"omitempty,max=500"`
	StartingElo          float64  `json:"starting_elo" validate:"omitempty,gte=100,lte=3000"`
	KFactor              float64  `json:"k_factor" validate:"omitempty,gte=1,lte=100"`
	BaseKFactor          *float64 `json:"base_k_factor" validate:"omitempty,gte=1,lte=100"`
	NewPlayerKBonus      *float64 `json:"new_player_k_bonus" validate:"omitempty,gte=0"`
	NewPlayerBonusPeriod *int     `json:"new_player_bonus_period" validate:"omitempty,gt=0"`
	DecayCurve           string   `json:"decay_curve" validate:"omitempty,oneof=linear exponential"`
	CreatedBy            string   `json:"created_by" validate:"omitempty,max=100"`
}

func (h *Handler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListConfigs")
	defer span.End()

	configs, err := h.configService.ListConfigs(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list elo configs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]configDTO, 0, len(configs))
	for _, c := range configs {
		items = append(items, configToDTO(c))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateConfig")
	defer span.End()

	var req createConfigRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.configService.CreateConfig(ctx, usecase.CreateConfigInput{
		Version:              req.Version,
		Description:          req.Description,
		StartingElo:          req.StartingElo,
		KFactor:              req.KFactor,
		BaseKFactor:          req.BaseKFactor,
		NewPlayerKBonus:      req.NewPlayerKBonus,
		NewPlayerBonusPeriod: req.NewPlayerBonusPeriod,
		DecayCurve:           req.DecayCurve,
		CreatedBy:            req.CreatedBy,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create elo config failed", "version", req.Version, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, configToDTO(item))
}

func (h *Handler) ActivateConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivateConfig")
	defer span.End()

	configID := r.PathValue("configID")
	item, err := h.configService.ActivateConfig(ctx, configID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate elo config failed", "config_id", configID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, configToDTO(item))
}
