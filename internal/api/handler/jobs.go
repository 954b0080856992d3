package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/coach-notify/internal/api/respond"
	"github.com/albapepper/coach-notify/internal/notifications"
	"github.com/albapepper/coach-notify/internal/scheduler"
)

// ListJobs returns the scheduled jobs and their next fire times.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	entries := []scheduler.Entry{}
	if h.Schedule != nil {
		entries = h.Schedule.Entries()
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"jobs": entries,
	})
}

// RunJob runs a batch job synchronously and returns its result. The
// optional `now` query parameter (RFC 3339) overrides the clock for the
// inactivity job.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	if job != notifications.JobDailyReminders && job != notifications.JobInactivity {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UNKNOWN_JOB", "Unknown job", job)
		return
	}

	now := h.Now()
	if v := r.URL.Query().Get("now"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_NOW", "now must be RFC 3339", err.Error())
			return
		}
		now = t
	}

	result, err := h.Jobs.Run(r.Context(), job, now)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "JOB_FAILED", "Job could not list candidates", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"job":     job,
		"result":  result,
		"summary": result.Summary(),
	})
}
