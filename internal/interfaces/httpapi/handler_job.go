package httpapi

import (
	"net/http"
)

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetJob")
	defer span.End()

	jobID := r.PathValue("jobID")
	item, err := h.jobService.GetJob(ctx, jobID)
	if err != nil {
		h.logger.WarnContext(ctx, "get job failed", "job_id", jobID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, jobToDTO(item))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobs")
	defer span.End()

	limit := parseIntParam(r.URL.Query().Get("limit"), 50)
	jobs, err := h.jobService.ListJobs(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list jobs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]jobDTO, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, jobToDTO(j))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
