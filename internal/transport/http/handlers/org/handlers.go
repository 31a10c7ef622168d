package orghandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *org.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermOrgRead, h.Perms)
	write := middleware.RequirePermission(auth.PermOrgWrite, h.Perms)

	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Patch("/{userID}", h.handleUpdateUser)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Delete("/{userID}", h.handleDeleteUser)
		r.With(read).Get("/{userID}/teams", h.handleListTeamsByMember)
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(read).Get("/", h.handleListDepartments)
		r.With(write).Post("/", h.handleCreateDepartment)
		r.With(read).Get("/{departmentID}", h.handleGetDepartment)
		r.With(write).Patch("/{departmentID}", h.handleUpdateDepartment)
		r.With(write).Delete("/{departmentID}", h.handleDeleteDepartment)
	})
	r.Route("/teams", func(r chi.Router) {
		r.With(read).Get("/", h.handleListTeams)
		r.With(write).Post("/", h.handleCreateTeam)
		r.With(read).Get("/{teamID}", h.handleGetTeam)
		r.With(write).Patch("/{teamID}", h.handleUpdateTeam)
		r.With(write).Delete("/{teamID}", h.handleDeleteTeam)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	users, err := h.Service.ListUsers(r.Context(), user, r.URL.Query().Get("role"))
	if err != nil {
		api.FailError(w, "list users", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username)
	v.Required("email", payload.Email)
	v.Required("password", payload.Password)
	v.Required("role", payload.Role)
	v.OneOf("role", payload.Role, auth.Roles)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateUser(r.Context(), user, org.UserInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		api.FailError(w, "create user", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "user.create", "user", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	found, err := h.Service.GetUser(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, "get user", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var patch org.UserPatch
	if !shared.DecodeJSON(w, r, &patch, requestID) {
		return
	}
	id := chi.URLParam(r, "userID")
	before, err := h.Service.User(r.Context(), id)
	if err != nil {
		api.FailError(w, "update user", err, requestID)
		return
	}
	updated, err := h.Service.UpdateUser(r.Context(), user, id, patch)
	if err != nil {
		api.FailError(w, "update user", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "user.update", "user", id, before, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "userID")
	if err := h.Service.DeleteUser(r.Context(), user, id); err != nil {
		api.FailError(w, "delete user", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "user.delete", "user", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) handleListTeamsByMember(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	teams, err := h.Service.ListTeamsByMember(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, "list member teams", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, teams, middleware.GetRequestID(r.Context()))
}
