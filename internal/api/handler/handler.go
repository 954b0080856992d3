// Package handler provides HTTP handlers for the admin API. Handlers call
// straight into the notification pipeline; there is no service layer.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/coach-notify/internal/api/respond"
	"github.com/albapepper/coach-notify/internal/notifications"
	"github.com/albapepper/coach-notify/internal/scheduler"
	"github.com/albapepper/coach-notify/internal/store"
)

// DBChecker verifies database connectivity.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
}

// JobRunner runs a batch job by name.
type JobRunner interface {
	Run(ctx context.Context, name string, now time.Time) (notifications.BatchResult, error)
}

// EventDispatcher composes and sends single events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, e notifications.Event) notifications.Outcome
	Prepare(ctx context.Context, e notifications.Event) (notifications.Message, notifications.Outcome, error)
}

// ScheduleLister reports scheduled jobs.
type ScheduleLister interface {
	Entries() []scheduler.Entry
}

// Deps are the handler dependencies. Schedule may be nil when the process
// runs without a scheduler.
type Deps struct {
	DB         DBChecker
	Store      store.Store
	Dispatcher EventDispatcher
	Jobs       JobRunner
	Schedule   ScheduleLister
	Now        func() time.Time
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	Deps
}

// New creates a Handler with shared dependencies.
func New(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Handler{Deps: deps}
}

// Root serves service info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":   "Coach Notify",
		"status": "running",
		"jobs":   []string{notifications.JobDailyReminders, notifications.JobInactivity},
		"collections": []string{
			store.CollectionNotifications,
			store.CollectionPlanAssignments,
			store.CollectionActivityLogs,
			store.CollectionUserAchievements,
		},
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.Now().UTC().Format(time.RFC3339),
	})
}
