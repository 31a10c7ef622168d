package reportshandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/reports"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/summary", h.handleSummary)
		r.Get("/{kind}", h.handleTable)
		r.Get("/{kind}/export", h.handleExport)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), user)
	if err != nil {
		api.FailError(w, "review summary", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	table, err := h.Service.Table(r.Context(), user, chi.URLParam(r, "kind"))
	if err != nil {
		api.FailError(w, "review report", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, table, middleware.GetRequestID(r.Context()))
}

// handleExport renders the report into memory first so a failure can still
// be answered with the JSON envelope.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	kind := chi.URLParam(r, "kind")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = reports.FormatCSV
	}

	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), user, kind, format, &buf); err != nil {
		api.FailError(w, "export report", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "report.export", "report", kind, nil, map[string]string{"format": format})

	contentType := "text/csv"
	if format == reports.FormatPDF {
		contentType = "application/pdf"
	}
	filename := fmt.Sprintf("%s-%s.%s", kind, time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
