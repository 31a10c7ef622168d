package jobshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	History jobs.History
	Perms   middleware.PermissionStore
}

func NewHandler(history jobs.History, perms middleware.PermissionStore) *Handler {
	return &Handler{History: history, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Get("/jobs/runs", h.handleListRuns)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.MustUser(w, r); !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.History.ListRuns(r.Context(), r.URL.Query().Get("type"), page.Limit)
	if err != nil {
		api.FailError(w, "list job runs", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
