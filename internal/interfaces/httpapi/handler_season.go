package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/avelier/club-ladder/internal/usecase"
)

type createSeasonRequest struct {
	Name                 string    `json:"name" validate:"required,max=100"`
	StartDate            time.Time `json:"start_date" validate:"required"`
	StartingElo          float64   `json:"starting_elo" validate:"omitempty,gte=100,lte=3000"`
	KFactor              float64   `json:"k_factor" validate:"omitempty,gte=1,lte=100"`
	BaseKFactor          *float64  `json:"base_k_factor" validate:"omitempty,gte=1,lte=100"`
	NewPlayerKBonus      *float64  `json:"new_player_k_bonus" validate:"omitempty,gte=0"`
	NewPlayerBonusPeriod *int      `json:"new_player_bonus_period" validate:"omitempty,gt=0"`
	DecayCurve           string    `json:"decay_curve" validate:"omitempty,oneof=linear exponential"`
	EloVersion           string    `json:"elo_version" validate:"omitempty,max=50"`
	Activate             bool      `json:"activate"`
	CreatedBy            string    `json:"created_by" validate:"omitempty,max=100"`
}

type setInclusionRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

type updateEloVersionRequest struct {
	Version     string `json:"version" validate:"required,max=50"`
	RequestedBy string `json:"requested_by" validate:"omitempty,max=100"`
}

type createSeasonResponse struct {
	Season     seasonDTO `json:"season"`
	MovedGames int       `json:"moved_games"`
	RecalcJob  *jobDTO   `json:"recalc_job,omitempty"`
}

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasons")
	defer span.End()

	seasons, err := h.seasonService.ListSeasons(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list seasons failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]seasonDTO, 0, len(seasons))
	for _, s := range seasons {
		items = append(items, seasonToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetActiveSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActiveSeason")
	defer span.End()

	item, err := h.seasonService.GetActiveSeason(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeason")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	item, err := h.seasonService.GetSeason(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "get season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSeason")
	defer span.End()

	var req createSeasonRequest
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

	result, err := h.seasonService.CreateSeason(ctx, usecase.CreateSeasonInput{
		Name:                 req.Name,
		StartDate:            req.StartDate,
		StartingElo:          req.StartingElo,
		KFactor:              req.KFactor,
		BaseKFactor:          req.BaseKFactor,
		NewPlayerKBonus:      req.NewPlayerKBonus,
		NewPlayerBonusPeriod: req.NewPlayerBonusPeriod,
		DecayCurve:           req.DecayCurve,
		EloVersion:           req.EloVersion,
		Activate:             req.Activate,
		CreatedBy:            req.CreatedBy,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	resp := createSeasonResponse{
		Season:     seasonToDTO(result.Season),
		MovedGames: result.MovedGames,
	}
	if result.RecalcJob != nil {
		dto := jobToDTO(*result.RecalcJob)
		resp.RecalcJob = &dto
	}

	writeSuccess(ctx, w, http.StatusCreated, resp)
}

func (h *Handler) ActivateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivateSeason")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	item, err := h.seasonService.ActivateSeason(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteSeason")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	item, err := h.seasonService.DeleteSeason(ctx, usecase.DeleteSeasonInput{
		SeasonID:    seasonID,
		ReassignTo:  r.URL.Query().Get("reassign_to"),
		RequestedBy: r.URL.Query().Get("requested_by"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "delete season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, jobToDTO(item))
}

func (h *Handler) ListSeasonPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasonPlayers")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	entries, err := h.seasonService.SeasonPlayers(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "list season players failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerSeasonDTO, 0, len(entries))
	for _, ps := range entries {
		items = append(items, playerSeasonToDTO(ps))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) IncludeSeasonPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IncludeSeasonPlayer")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	var req setInclusionRequest
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

	if err := h.seasonService.SetInclusion(ctx, seasonID, req.PlayerID, true); err != nil {
		h.logger.WarnContext(ctx, "include season player failed", "season_id", seasonID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"included": true})
}

func (h *Handler) ExcludeSeasonPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExcludeSeasonPlayer")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	playerID := r.PathValue("playerID")
	if err := h.seasonService.SetInclusion(ctx, seasonID, playerID, false); err != nil {
		h.logger.WarnContext(ctx, "exclude season player failed", "season_id", seasonID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"included": false})
}

func (h *Handler) ListAvailablePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAvailablePlayers")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	players, err := h.seasonService.AvailablePlayers(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "list available players failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	entries, err := h.seasonService.Leaderboard(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, leaderboardEntryToDTO(e))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) UpdateSeasonEloVersion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSeasonEloVersion")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	var req updateEloVersionRequest
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

	item, err := h.seasonService.UpdateEloVersion(ctx, seasonID, req.Version, req.RequestedBy)
	if err != nil {
		h.logger.WarnContext(ctx, "update season elo version failed", "season_id", seasonID, "version", req.Version, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, jobToDTO(item))
}

func (h *Handler) RecalculateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalculateSeason")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	item, err := h.recalcService.Recalculate(ctx, seasonID, r.URL.Query().Get("requested_by"))
	if err != nil {
		h.logger.WarnContext(ctx, "recalculate season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, jobToDTO(item))
}
