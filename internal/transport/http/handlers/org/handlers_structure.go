package orghandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/org"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	depts, err := h.Service.ListDepartments(r.Context(), user)
	if err != nil {
		api.FailError(w, "list departments", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, depts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name)
	if v.Reject(w, requestID) {
		return
	}

	dept, err := h.Service.CreateDepartment(r.Context(), user, org.DepartmentInput{Name: payload.Name, Description: payload.Description})
	if err != nil {
		api.FailError(w, "create department", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "department.create", "department", dept.ID, nil, dept)
	api.Created(w, dept, requestID)
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	dept, err := h.Service.GetDepartment(r.Context(), user, chi.URLParam(r, "departmentID"))
	if err != nil {
		api.FailError(w, "get department", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dept, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var patch org.DepartmentPatch
	if !shared.DecodeJSON(w, r, &patch, requestID) {
		return
	}
	id := chi.URLParam(r, "departmentID")
	dept, err := h.Service.UpdateDepartment(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update department", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "department.update", "department", id, nil, dept)
	api.Success(w, dept, requestID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "departmentID")
	if err := h.Service.DeleteDepartment(r.Context(), user, id); err != nil {
		api.FailError(w, "delete department", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "department.delete", "department", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	teams, err := h.Service.ListTeams(r.Context(), user)
	if err != nil {
		api.FailError(w, "list teams", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, teams, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Name         string   `json:"name"`
		DepartmentID string   `json:"departmentId"`
		Members      []string `json:"members"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name)
	if v.Reject(w, requestID) {
		return
	}

	team, err := h.Service.CreateTeam(r.Context(), user, org.TeamInput{
		Name:         payload.Name,
		DepartmentID: payload.DepartmentID,
		Members:      payload.Members,
	})
	if err != nil {
		api.FailError(w, "create team", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "team.create", "team", team.ID, nil, team)
	api.Created(w, team, requestID)
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	team, err := h.Service.GetTeam(r.Context(), user, chi.URLParam(r, "teamID"))
	if err != nil {
		api.FailError(w, "get team", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var patch org.TeamPatch
	if !shared.DecodeJSON(w, r, &patch, requestID) {
		return
	}
	id := chi.URLParam(r, "teamID")
	team, err := h.Service.UpdateTeam(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update team", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "team.update", "team", id, nil, team)
	api.Success(w, team, requestID)
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "teamID")
	if err := h.Service.DeleteTeam(r.Context(), user, id); err != nil {
		api.FailError(w, "delete team", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "team.delete", "team", id, nil, nil)
	api.NoContent(w)
}
