package goalshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service *goals.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *goals.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermGoalsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermGoalsRead, h.Perms)).Get("/{goalID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Patch("/{goalID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Delete("/{goalID}", h.handleDelete)
	})
}

type goalPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartDate    string `json:"startDate"`
	DueDate      string `json:"dueDate"`
	ManagerID    string `json:"managerId"`
	TeamID       string `json:"teamId"`
	DepartmentID string `json:"departmentId"`
}

type goalPatchPayload struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	StartDate    *string `json:"startDate"`
	DueDate      *string `json:"dueDate"`
	Status       *string `json:"status"`
	TeamID       *string `json:"teamId"`
	DepartmentID *string `json:"departmentId"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.List(r.Context(), user)
	if err != nil {
		api.FailError(w, "list goals", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload goalPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("title", payload.Title)
	v.Ref("teamId", payload.TeamID)
	v.OptionalRef("managerId", payload.ManagerID)
	v.OptionalRef("departmentId", payload.DepartmentID)
	start := v.OptionalDate("startDate", &payload.StartDate)
	due := v.OptionalDate("dueDate", &payload.DueDate)
	if start != nil && due != nil {
		v.DateOrder("startDate", *start, "dueDate", *due)
	}
	if v.Reject(w, requestID) {
		return
	}

	goal, err := h.Service.Create(r.Context(), user, goals.GoalInput{
		Title:        payload.Title,
		Description:  payload.Description,
		StartDate:    start,
		DueDate:      due,
		ManagerID:    payload.ManagerID,
		TeamID:       payload.TeamID,
		DepartmentID: payload.DepartmentID,
	})
	if err != nil {
		api.FailError(w, "create goal", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal.create", "goal", goal.ID, nil, goal)
	api.Created(w, goal, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	goal, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "goalID"))
	if err != nil {
		api.FailError(w, "get goal", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload goalPatchPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	patch := goals.GoalPatch{
		Title:        payload.Title,
		Description:  payload.Description,
		StartDate:    v.OptionalDate("startDate", payload.StartDate),
		DueDate:      v.OptionalDate("dueDate", payload.DueDate),
		Status:       payload.Status,
		TeamID:       payload.TeamID,
		DepartmentID: payload.DepartmentID,
	}
	if payload.Status != nil {
		v.OneOf("status", *payload.Status, goals.Statuses)
	}
	if v.Reject(w, requestID) {
		return
	}

	id := chi.URLParam(r, "goalID")
	before, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailError(w, "update goal", err, requestID)
		return
	}
	goal, err := h.Service.Update(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update goal", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal.update", "goal", id, before, goal)
	api.Success(w, goal, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "goalID")
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		api.FailError(w, "delete goal", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "goal.delete", "goal", id, nil, nil)
	api.NoContent(w)
}
