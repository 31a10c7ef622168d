package notificationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *notifications.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms))
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.Delete("/{notificationID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	page := shared.ParsePagination(r, notifications.DefaultListLimit, 200)
	items, err := h.Service.List(r.Context(), user, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, "list notifications", err, requestID)
		return
	}
	unread, err := h.Service.UnreadCount(r.Context(), user)
	if err != nil {
		api.FailError(w, "count notifications", err, requestID)
		return
	}
	w.Header().Set("X-Unread-Count", strconv.Itoa(unread))
	api.Success(w, items, requestID)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(r.Context(), user)
	if err != nil {
		api.FailError(w, "count notifications", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"unread": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	n, err := h.Service.MarkRead(r.Context(), user, chi.URLParam(r, "notificationID"))
	if err != nil {
		api.FailError(w, "mark notification read", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), user)
	if err != nil {
		api.FailError(w, "mark notifications read", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"updated": updated}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), user, chi.URLParam(r, "notificationID")); err != nil {
		api.FailError(w, "delete notification", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.NoContent(w)
}
