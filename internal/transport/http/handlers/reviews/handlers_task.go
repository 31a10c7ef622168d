package reviewshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type taskReviewPayload struct {
	TaskID       string `json:"taskId"`
	DepartmentID string `json:"departmentId"`
	TeamID       string `json:"teamId"`
	ProjectID    string `json:"projectId"`
	EmployeeID   string `json:"employeeId"`
	Description  string `json:"description"`
	DueDate      string `json:"dueDate"`
}

type taskReviewPatchPayload struct {
	TaskID       *string `json:"taskId"`
	DepartmentID *string `json:"departmentId"`
	TeamID       *string `json:"teamId"`
	ProjectID    *string `json:"projectId"`
	EmployeeID   *string `json:"employeeId"`
	Description  *string `json:"description"`
	DueDate      *string `json:"dueDate"`
}

func (h *Handler) handleListTaskReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListTaskReviews(r.Context(), user)
	if err != nil {
		api.FailError(w, "list task reviews", err, requestID)
		return
	}
	views, err := h.Projector.TaskReviews(r.Context(), items)
	if err != nil {
		api.FailError(w, "list task reviews", err, requestID)
		return
	}
	api.Success(w, views, requestID)
}

func (h *Handler) handleListSubmittedTaskReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListSubmittedTaskReviews(r.Context(), user)
	if err != nil {
		api.FailError(w, "list submitted task reviews", err, requestID)
		return
	}
	views, err := h.Projector.TaskReviews(r.Context(), items)
	if err != nil {
		api.FailError(w, "list submitted task reviews", err, requestID)
		return
	}
	api.Success(w, views, requestID)
}

func (h *Handler) handleCreateTaskReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload taskReviewPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Ref("taskId", payload.TaskID)
	v.Ref("departmentId", payload.DepartmentID)
	v.Ref("teamId", payload.TeamID)
	v.Ref("projectId", payload.ProjectID)
	v.Ref("employeeId", payload.EmployeeID)
	due, _ := v.Date("dueDate", payload.DueDate)
	if v.Reject(w, requestID) {
		return
	}

	review, err := h.Service.CreateTaskReview(r.Context(), user, reviews.TaskReviewInput{
		TaskID:       payload.TaskID,
		DepartmentID: payload.DepartmentID,
		TeamID:       payload.TeamID,
		ProjectID:    payload.ProjectID,
		EmployeeID:   payload.EmployeeID,
		Description:  payload.Description,
		DueDate:      &due,
	})
	if err != nil {
		api.FailError(w, "create task review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task_review.create", "task_review", review.ID, nil, review)
	api.Created(w, review, requestID)
}

func (h *Handler) handleGetTaskReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	review, err := h.Service.GetTaskReview(r.Context(), user, chi.URLParam(r, "reviewID"))
	if err != nil {
		api.FailError(w, "get task review", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTaskReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload taskReviewPatchPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	patch := reviews.TaskReviewPatch{
		TaskID:       payload.TaskID,
		DepartmentID: payload.DepartmentID,
		TeamID:       payload.TeamID,
		ProjectID:    payload.ProjectID,
		EmployeeID:   payload.EmployeeID,
		Description:  payload.Description,
		DueDate:      v.OptionalDate("dueDate", payload.DueDate),
	}
	if v.Reject(w, requestID) {
		return
	}

	id := chi.URLParam(r, "reviewID")
	review, err := h.Service.UpdateTaskReview(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update task review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task_review.update", "task_review", id, payload, review)
	api.Success(w, review, requestID)
}

func (h *Handler) handleSubmitTaskReview(w http.ResponseWriter, r *http.Request) {
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
	review, err := h.Service.SubmitTaskReview(r.Context(), user, id, payload.Review)
	if err != nil {
		api.FailError(w, "submit task review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task_review.submit", "task_review", id, nil, map[string]string{"status": review.Status})
	api.Success(w, review, requestID)
}

func (h *Handler) handleReopenTaskReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "reviewID")
	review, err := h.Service.ReopenTaskReview(r.Context(), user, id)
	if err != nil {
		api.FailError(w, "reopen task review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task_review.reopen", "task_review", id, nil, map[string]string{"status": review.Status})
	api.Success(w, review, requestID)
}

func (h *Handler) handleDeleteTaskReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "reviewID")
	if err := h.Service.DeleteTaskReview(r.Context(), user, id); err != nil {
		api.FailError(w, "delete task review", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task_review.delete", "task_review", id, nil, nil)
	api.NoContent(w)
}
