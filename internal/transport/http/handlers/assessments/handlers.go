package assessmentshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type Handler struct {
	Service *assessments.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *assessments.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAssessmentsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermAssessmentsWrite, h.Perms)
	feedback := middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)

	r.Route("/self-assessments", func(r chi.Router) {
		r.With(read).Get("/", h.handleListSelfAssessments)
		r.With(write).Post("/", h.handleSubmitSelfAssessment)
		r.With(read).Get("/{assessmentID}", h.handleGetSelfAssessment)
		r.With(write).Patch("/{assessmentID}", h.handleEditSelfAssessment)
		r.With(write).Delete("/{assessmentID}", h.handleDeleteSelfAssessment)
		r.With(read).Get("/{assessmentID}/feedback", h.handleFeedbackForSelfAssessment)
	})
	r.Route("/feedback", func(r chi.Router) {
		r.With(read).Get("/", h.handleListFeedback)
		r.With(feedback).Post("/", h.handleSubmitFeedback)
		r.With(read).Get("/{feedbackID}", h.handleGetFeedback)
		r.With(feedback).Patch("/{feedbackID}", h.handleEditFeedback)
		r.With(feedback).Delete("/{feedbackID}", h.handleDeleteFeedback)
	})
}

type commentsPayload struct {
	Comments string `json:"comments"`
}

func (h *Handler) handleListSelfAssessments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.ListSelfAssessments(r.Context(), user)
	if err != nil {
		api.FailError(w, "list self-assessments", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		TaskID   string `json:"taskId"`
		Comments string `json:"comments"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Ref("taskId", payload.TaskID)
	v.Required("comments", payload.Comments)
	if v.Reject(w, requestID) {
		return
	}

	sa, err := h.Service.SubmitSelfAssessment(r.Context(), user, assessments.SelfAssessmentInput{TaskID: payload.TaskID, Comments: payload.Comments})
	if err != nil {
		api.FailError(w, "submit self-assessment", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "self_assessment.submit", "self_assessment", sa.ID, nil, map[string]string{"taskId": sa.TaskID, "status": sa.Status})
	api.Created(w, sa, requestID)
}

func (h *Handler) handleGetSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	sa, err := h.Service.GetSelfAssessment(r.Context(), user, chi.URLParam(r, "assessmentID"))
	if err != nil {
		api.FailError(w, "get self-assessment", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sa, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEditSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload commentsPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	id := chi.URLParam(r, "assessmentID")
	sa, err := h.Service.EditSelfAssessment(r.Context(), user, id, payload.Comments)
	if err != nil {
		api.FailError(w, "edit self-assessment", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "self_assessment.edit", "self_assessment", id, nil, nil)
	api.Success(w, sa, requestID)
}

func (h *Handler) handleDeleteSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "assessmentID")
	if err := h.Service.DeleteSelfAssessment(r.Context(), user, id); err != nil {
		api.FailError(w, "delete self-assessment", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "self_assessment.delete", "self_assessment", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) handleFeedbackForSelfAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	fb, err := h.Service.FeedbackForSelfAssessment(r.Context(), user, chi.URLParam(r, "assessmentID"))
	if err != nil {
		api.FailError(w, "get feedback", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, fb, middleware.GetRequestID(r.Context()))
}
