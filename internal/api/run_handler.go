package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/repo"
	"github.com/shaiso/nodus-deploy/internal/telemetry"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?network=...&plan=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		dbDisabled(w)
		return
	}

	q := r.URL.Query()
	filter := repo.RunFilter{
		Network:  q.Get("network"),
		PlanName: q.Get("plan"),
		Limit:    parseInt(q.Get("limit"), 50),
		Offset:   parseInt(q.Get("offset"), 0),
	}

	if status := q.Get("status"); status != "" {
		s := domain.ParseRunStatus(status)
		if string(s) != status {
			invalidParam(w, "status", status)
			return
		}
		filter.Status = s
	}

	runs, err := h.runs.ListRuns(r.Context(), filter)
	if repoError(w, telemetry.FromContext(r.Context()), err, CodeInternal, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	writeList(w, result, len(result))
}

// GetRun возвращает run с результатами шагов.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		dbDisabled(w)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		invalidParam(w, "run id", r.PathValue("id"))
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if repoError(w, telemetry.FromContext(r.Context()), err, CodeRunNotFound, "run not found") {
		return
	}

	writeData(w, RunDetailResponse{
		RunResponse: RunFromDomain(*run.Run),
		Deployments: DeploymentsFromDomain(run.Results),
	})
}

// parseInt разбирает неотрицательное число, def при ошибке.
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
