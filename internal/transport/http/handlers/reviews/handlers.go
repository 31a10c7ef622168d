package reviewshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

// Runner executes a tracked job synchronously.
type Runner interface {
	RunNow(ctx context.Context, jobType string, run jobs.RunFunc) (any, error)
}

type Handler struct {
	Service   *reviews.Service
	Projector *readmodel.Projector
	Jobs      Runner
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
}

func NewHandler(service *reviews.Service, projector *readmodel.Projector, runner Runner, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Projector: projector, Jobs: runner, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermReviewsRead, h.Perms)
	manage := middleware.RequirePermission(auth.PermReviewsManage, h.Perms)
	submit := middleware.RequirePermission(auth.PermReviewsSubmit, h.Perms)

	r.Route("/goal-reviews", func(r chi.Router) {
		r.With(read).Get("/", h.handleListGoalReviews)
		r.With(manage).Post("/", h.handleCreateGoalReview)
		r.With(read).Get("/{reviewID}", h.handleGetGoalReview)
		r.With(manage).Patch("/{reviewID}", h.handleUpdateGoalReview)
		r.With(manage).Delete("/{reviewID}", h.handleDeleteGoalReview)
		r.With(submit).Post("/{reviewID}/submit", h.handleSubmitGoalReview)
		r.With(manage).Post("/{reviewID}/reopen", h.handleReopenGoalReview)
	})
	r.Route("/task-reviews", func(r chi.Router) {
		r.With(read).Get("/", h.handleListTaskReviews)
		r.With(manage).Get("/submitted", h.handleListSubmittedTaskReviews)
		r.With(manage).Post("/", h.handleCreateTaskReview)
		r.With(read).Get("/{reviewID}", h.handleGetTaskReview)
		r.With(manage).Patch("/{reviewID}", h.handleUpdateTaskReview)
		r.With(manage).Delete("/{reviewID}", h.handleDeleteTaskReview)
		r.With(submit).Post("/{reviewID}/submit", h.handleSubmitTaskReview)
		r.With(manage).Post("/{reviewID}/reopen", h.handleReopenTaskReview)
	})
	r.With(manage).Post("/reviews/reminders/run", h.handleRunReminders)
}

type submitPayload struct {
	Review string `json:"review"`
}

type goalReviewPayload struct {
	GoalID      string `json:"goalId"`
	ManagerID   string `json:"managerId"`
	TeamID      string `json:"teamId"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

type goalReviewPatchPayload struct {
	GoalID      *string `json:"goalId"`
	ManagerID   *string `json:"managerId"`
	TeamID      *string `json:"teamId"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
}

func (h *Handler) handleListGoalReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListGoalReviews(r.Context(), user)
	if err != nil {
		api.FailError(w, "list goal reviews", err, requestID)
		return
	}
	views, err := h.Projector.GoalReviews(r.Context(), items)
	if err != nil {
		api.FailError(w, "list goal reviews", err, requestID)
		return
	}
	api.Success(w, views, requestID)
}

func (h *Handler) handleCreateGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload goalReviewPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Ref("goalId", payload.GoalID)
	v.Ref("managerId", payload.ManagerID)
	v.OptionalRef("teamId", payload.TeamID)
	due, _ := v.Date("dueDate", payload.DueDate)
	if v.Reject(w, requestID) {
		return
	}

	review, err := h.Service.CreateGoalReview(r.Context(), user, reviews.GoalReviewInput{
		GoalID:      payload.GoalID,
		ManagerID:   payload.ManagerID,
		TeamID:      payload.TeamID,
		Description: payload.Description,
		DueDate:     &due,
	})
	if err != nil {
		api.FailError(w, "create goal review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal_review.create", "goal_review", review.ID, nil, review)
	api.Created(w, review, requestID)
}

func (h *Handler) handleGetGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	review, err := h.Service.GetGoalReview(r.Context(), user, chi.URLParam(r, "reviewID"))
	if err != nil {
		api.FailError(w, "get goal review", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload goalReviewPatchPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	patch := reviews.GoalReviewPatch{
		GoalID:      payload.GoalID,
		ManagerID:   payload.ManagerID,
		TeamID:      payload.TeamID,
		Description: payload.Description,
		DueDate:     v.OptionalDate("dueDate", payload.DueDate),
	}
	if v.Reject(w, requestID) {
		return
	}

	id := chi.URLParam(r, "reviewID")
	review, err := h.Service.UpdateGoalReview(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update goal review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal_review.update", "goal_review", id, payload, review)
	api.Success(w, review, requestID)
}

func (h *Handler) handleSubmitGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload submitPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	id := chi.URLParam(r, "reviewID")
	review, err := h.Service.SubmitGoalReview(r.Context(), user, id, payload.Review)
	if err != nil {
		api.FailError(w, "submit goal review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal_review.submit", "goal_review", id, nil, map[string]string{"status": review.Status})
	api.Success(w, review, requestID)
}

func (h *Handler) handleReopenGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "reviewID")
	review, err := h.Service.ReopenGoalReview(r.Context(), user, id)
	if err != nil {
		api.FailError(w, "reopen goal review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal_review.reopen", "goal_review", id, nil, map[string]string{"status": review.Status})
	api.Success(w, review, requestID)
}

func (h *Handler) handleDeleteGoalReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "reviewID")
	if err := h.Service.DeleteGoalReview(r.Context(), user, id); err != nil {
		api.FailError(w, "delete goal review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal_review.delete", "goal_review", id, nil, nil)
	api.NoContent(w)
}

// handleRunReminders sweeps reviews due on ?date= (default today, UTC) and
// records the run in the job history.
func (h *Handler) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		v := shared.NewValidator()
		parsed, _ := v.Date("date", raw)
		if v.Reject(w, requestID) {
			return
		}
		day = parsed
	}

	result, err := h.Jobs.RunNow(r.Context(), jobs.JobReviewReminders, func(ctx context.Context) (any, error) {
		return h.Service.SweepReminders(ctx, user, day)
	})
	if err != nil {
		api.FailError(w, "run review reminders", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "reviews.reminders.run", "job_run", jobs.JobReviewReminders, nil, result)
	api.Success(w, result, requestID)
}
