package taskshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service   *tasks.Service
	Projector *readmodel.Projector
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
}

func NewHandler(service *tasks.Service, projector *readmodel.Projector, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Projector: projector, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTasksRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTasksWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTasksRead, h.Perms)).Get("/{taskID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTasksWrite, h.Perms)).Patch("/{taskID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermTasksWrite, h.Perms)).Delete("/{taskID}", h.handleDelete)
	})
}

type taskPayload struct {
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	EmployeeID  string `json:"employeeId"`
}

type taskPatchPayload struct {
	ProjectID   *string `json:"projectId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	EmployeeID  *string `json:"employeeId"`
}

// handleList returns tasks with goal, employee and manager names resolved.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	items, err := h.Service.List(r.Context(), user, r.URL.Query().Get("projectId"))
	if err != nil {
		api.FailError(w, "list tasks", err, requestID)
		return
	}
	views, err := h.Projector.Tasks(r.Context(), items)
	if err != nil {
		api.FailError(w, "list tasks", err, requestID)
		return
	}
	api.Success(w, views, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload taskPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Ref("projectId", payload.ProjectID)
	v.Required("title", payload.Title)
	v.Ref("employeeId", payload.EmployeeID)
	v.OneOf("priority", payload.Priority, tasks.Priorities)
	start := v.OptionalDate("startDate", &payload.StartDate)
	due := v.OptionalDate("dueDate", &payload.DueDate)
	if start != nil && due != nil {
		v.DateOrder("startDate", *start, "dueDate", *due)
	}
	if v.Reject(w, requestID) {
		return
	}

	task, err := h.Service.Create(r.Context(), user, tasks.TaskInput{
		ProjectID:   payload.ProjectID,
		Title:       payload.Title,
		Description: payload.Description,
		StartDate:   start,
		DueDate:     due,
		Priority:    payload.Priority,
		EmployeeID:  payload.EmployeeID,
	})
	if err != nil {
		api.FailError(w, "create task", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task.create", "task", task.ID, nil, task)
	api.Created(w, task, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	task, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "taskID"))
	if err != nil {
		api.FailError(w, "get task", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, task, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload taskPatchPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	patch := tasks.TaskPatch{
		ProjectID:   payload.ProjectID,
		Title:       payload.Title,
		Description: payload.Description,
		StartDate:   v.OptionalDate("startDate", payload.StartDate),
		DueDate:     v.OptionalDate("dueDate", payload.DueDate),
		Status:      payload.Status,
		Priority:    payload.Priority,
		EmployeeID:  payload.EmployeeID,
	}
	if payload.Status != nil {
		v.OneOf("status", *payload.Status, goals.Statuses)
	}
	if payload.Priority != nil {
		v.OneOf("priority", *payload.Priority, tasks.Priorities)
	}
	if v.Reject(w, requestID) {
		return
	}

	id := chi.URLParam(r, "taskID")
	before, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailError(w, "update task", err, requestID)
		return
	}
	task, err := h.Service.Update(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update task", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task.update", "task", id, before, task)
	api.Success(w, task, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "taskID")
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		api.FailError(w, "delete task", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "task.delete", "task", id, nil, nil)
	api.NoContent(w)
}
