package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Auth  *auth.Service
	Users *org.Service
	Audit shared.Auditor
}

func NewHandler(authSvc *auth.Service, users *org.Service, auditor shared.Auditor) *Handler {
	return &Handler{Auth: authSvc, Users: users, Audit: auditor}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Required("login", payload.Login)
	v.Required("password", payload.Password)
	if v.Reject(w, requestID) {
		return
	}

	token, creds, err := h.Auth.Login(r.Context(), strings.TrimSpace(payload.Login), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.FailError(w, "login", err, requestID)
		return
	}

	shared.RecordAudit(r, h.Audit, requestID, creds.UserID, "auth.login", "user", creds.UserID, nil, nil)
	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":       creds.UserID,
			"username": creds.Username,
			"email":    creds.Email,
			"role":     creds.Role,
		},
	}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	profile, err := h.Users.GetUser(r.Context(), user, user.UserID)
	if err != nil {
		api.FailError(w, "load profile", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}
