package assessmentshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/middleware"
	"perfcycle/internal/transport/http/shared"
)

type feedbackTextPayload struct {
	FeedbackText string `json:"feedbackText"`
}

func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.ListFeedback(r.Context(), user)
	if err != nil {
		api.FailError(w, "list feedback", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		SelfAssessmentID string `json:"selfAssessmentId"`
		FeedbackText     string `json:"feedbackText"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Ref("selfAssessmentId", payload.SelfAssessmentID)
	v.Required("feedbackText", payload.FeedbackText)
	if v.Reject(w, requestID) {
		return
	}

	fb, err := h.Service.SubmitFeedback(r.Context(), user, assessments.FeedbackInput{
		SelfAssessmentID: payload.SelfAssessmentID,
		FeedbackText:     payload.FeedbackText,
	})
	if err != nil {
		api.FailError(w, "submit feedback", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "feedback.submit", "feedback", fb.ID, nil, map[string]string{"selfAssessmentId": fb.SelfAssessmentID})
	api.Created(w, fb, requestID)
}

func (h *Handler) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	fb, err := h.Service.GetFeedback(r.Context(), user, chi.URLParam(r, "feedbackID"))
	if err != nil {
		api.FailError(w, "get feedback", err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, fb, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEditFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload feedbackTextPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	id := chi.URLParam(r, "feedbackID")
	fb, err := h.Service.EditFeedback(r.Context(), user, id, payload.FeedbackText)
	if err != nil {
		api.FailError(w, "edit feedback", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "feedback.edit", "feedback", id, nil, map[string]string{"status": fb.Status})
	api.Success(w, fb, requestID)
}

func (h *Handler) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.MustUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "feedbackID")
	if err := h.Service.DeleteFeedback(r.Context(), user, id); err != nil {
		api.FailError(w, "delete feedback", err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, requestID, user.UserID, "feedback.delete", "feedback", id, nil, nil)
	api.NoContent(w)
}
