package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/avelier/club-ladder/internal/usecase"
)

type submitMatchRequest struct {
	Player1ID   string     `json:"player1_id" validate:"required"`
	Player2ID   string     `json:"player2_id" validate:"required"`
	Games       []string   `json:"games" validate:"required,min=1,dive,oneof=player1 player2"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedBy   string     `json:"created_by" validate:"omitempty,max=100"`
}

type matchPageDTO struct {
	Items  []matchDTO `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func (h *Handler) SubmitMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMatch")
	defer span.End()

	var req submitMatchRequest
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

	result, err := h.matchService.SubmitMatch(ctx, usecase.SubmitMatchInput{
		Player1ID:   req.Player1ID,
		Player2ID:   req.Player2ID,
		Games:       req.Games,
		SubmittedAt: req.SubmittedAt,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit match failed", "player1_id", req.Player1ID, "player2_id", req.Player2ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchResultToDTO(result))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	item, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	query := r.URL.Query()
	limit := parseIntParam(query.Get("limit"), 50)
	offset := parseIntParam(query.Get("offset"), 0)

	items, total, err := h.matchService.ListMatches(ctx, query.Get("season_id"), limit, offset)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "season_id", query.Get("season_id"), "error", err)
		writeError(ctx, w, err)
		return
	}

	page := matchPageDTO{
		Items:  make([]matchDTO, 0, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, m := range items {
		page.Items = append(page.Items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, page)
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	item, err := h.matchService.DeleteMatch(ctx, matchID, r.URL.Query().Get("requested_by"))
	if err != nil {
		h.logger.WarnContext(ctx, "delete match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, jobToDTO(item))
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
