package assessments

import (
	"context"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/goals"
)

type Service struct {
	store StoreAPI
	dir   Directory
}

func NewService(store StoreAPI, dir Directory) *Service {
	return &Service{store: store, dir: dir}
}

func (s *Service) SubmitSelfAssessment(ctx context.Context, caller auth.UserContext, input SelfAssessmentInput) (SelfAssessment, error) {
	if err := auth.Authorize(auth.ActionAssessmentSubmit, caller, auth.Resource{}); err != nil {
		return SelfAssessment{}, err
	}
	taskID := strings.TrimSpace(input.TaskID)
	comments := strings.TrimSpace(input.Comments)
	if taskID == "" {
		return SelfAssessment{}, apperror.Validation("taskId is required")
	}
	if comments == "" {
		return SelfAssessment{}, apperror.Validation("comments are required")
	}
	task, err := s.dir.Task(ctx, taskID)
	if err != nil {
		return SelfAssessment{}, err
	}
	if task.EmployeeID != caller.UserID {
		return SelfAssessment{}, apperror.NotFound("task")
	}
	if task.Status != goals.StatusCompleted {
		return SelfAssessment{}, apperror.Validation("task must be completed before submitting a self-assessment")
	}
	return s.store.CreateSelfAssessment(ctx, SelfAssessment{
		EmployeeID: caller.UserID,
		ManagerID:  task.ManagerID,
		TaskID:     task.ID,
		Comments:   comments,
		Status:     StatusSubmitted,
	})
}

func (s *Service) GetSelfAssessment(ctx context.Context, caller auth.UserContext, id string) (SelfAssessment, error) {
	if caller.UserID == "" {
		return SelfAssessment{}, apperror.ErrUnauthenticated
	}
	sa, err := s.store.GetSelfAssessment(ctx, id)
	if err != nil {
		return SelfAssessment{}, err
	}
	if err := auth.Authorize(auth.ActionAssessmentRead, caller, assessmentResource(sa)); err != nil {
		return SelfAssessment{}, err
	}
	return sa, nil
}

func (s *Service) ListSelfAssessments(ctx context.Context, caller auth.UserContext) ([]SelfAssessment, error) {
	filter, err := scopeFor(caller)
	if err != nil {
		return nil, err
	}
	return s.store.ListSelfAssessments(ctx, filter)
}

func (s *Service) EditSelfAssessment(ctx context.Context, caller auth.UserContext, id, comments string) (SelfAssessment, error) {
	if caller.UserID == "" {
		return SelfAssessment{}, apperror.ErrUnauthenticated
	}
	sa, err := s.store.GetSelfAssessment(ctx, id)
	if err != nil {
		return SelfAssessment{}, err
	}
	if err := auth.Authorize(auth.ActionAssessmentEdit, caller, assessmentResource(sa)); err != nil {
		return SelfAssessment{}, err
	}
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return SelfAssessment{}, apperror.Validation("comments are required")
	}
	return s.store.UpdateSelfAssessmentComments(ctx, id, comments)
}

func (s *Service) DeleteSelfAssessment(ctx context.Context, caller auth.UserContext, id string) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	sa, err := s.store.GetSelfAssessment(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionAssessmentDelete, caller, assessmentResource(sa)); err != nil {
		return err
	}
	if sa.FeedbackID != "" {
		return apperror.Conflict("self-assessment", "self-assessment has feedback attached")
	}
	return s.store.DeleteSelfAssessment(ctx, id)
}

// SubmitFeedback records the caller as the feedback author and completes
// the assessment in the same write.
func (s *Service) SubmitFeedback(ctx context.Context, caller auth.UserContext, input FeedbackInput) (Feedback, error) {
	if caller.UserID == "" {
		return Feedback{}, apperror.ErrUnauthenticated
	}
	saID := strings.TrimSpace(input.SelfAssessmentID)
	text := strings.TrimSpace(input.FeedbackText)
	if saID == "" {
		return Feedback{}, apperror.Validation("selfAssessmentId is required")
	}
	if text == "" {
		return Feedback{}, apperror.Validation("feedbackText is required")
	}
	sa, err := s.store.GetSelfAssessment(ctx, saID)
	if err != nil {
		return Feedback{}, err
	}
	if err := auth.Authorize(auth.ActionFeedbackSubmit, caller, assessmentResource(sa)); err != nil {
		return Feedback{}, err
	}
	if sa.FeedbackID != "" {
		return Feedback{}, apperror.Conflict("feedback", "feedback already submitted for this self-assessment")
	}
	return s.store.CreateFeedback(ctx, Feedback{
		SelfAssessmentID: sa.ID,
		ManagerID:        caller.UserID,
		FeedbackText:     text,
		Status:           FeedbackSubmitted,
	})
}

func (s *Service) GetFeedback(ctx context.Context, caller auth.UserContext, id string) (Feedback, error) {
	if caller.UserID == "" {
		return Feedback{}, apperror.ErrUnauthenticated
	}
	fb, err := s.store.GetFeedback(ctx, id)
	if err != nil {
		return Feedback{}, err
	}
	if err := s.authorizeFeedbackRead(ctx, caller, fb); err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

func (s *Service) FeedbackForSelfAssessment(ctx context.Context, caller auth.UserContext, selfAssessmentID string) (Feedback, error) {
	if _, err := s.GetSelfAssessment(ctx, caller, selfAssessmentID); err != nil {
		return Feedback{}, err
	}
	return s.store.FeedbackBySelfAssessment(ctx, selfAssessmentID)
}

func (s *Service) ListFeedback(ctx context.Context, caller auth.UserContext) ([]Feedback, error) {
	filter, err := scopeFor(caller)
	if err != nil {
		return nil, err
	}
	return s.store.ListFeedback(ctx, filter)
}

func (s *Service) EditFeedback(ctx context.Context, caller auth.UserContext, id, text string) (Feedback, error) {
	if caller.UserID == "" {
		return Feedback{}, apperror.ErrUnauthenticated
	}
	fb, err := s.store.GetFeedback(ctx, id)
	if err != nil {
		return Feedback{}, err
	}
	if err := auth.Authorize(auth.ActionFeedbackEdit, caller, auth.Resource{OwnerID: fb.ManagerID}); err != nil {
		return Feedback{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Feedback{}, apperror.Validation("feedbackText is required")
	}
	return s.store.UpdateFeedbackText(ctx, id, text)
}

func (s *Service) DeleteFeedback(ctx context.Context, caller auth.UserContext, id string) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	fb, err := s.store.GetFeedback(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionFeedbackDelete, caller, auth.Resource{OwnerID: fb.ManagerID}); err != nil {
		return err
	}
	return s.store.DeleteFeedback(ctx, id)
}

func (s *Service) authorizeFeedbackRead(ctx context.Context, caller auth.UserContext, fb Feedback) error {
	if caller.IsHR() || caller.UserID == fb.ManagerID {
		return nil
	}
	sa, err := s.store.GetSelfAssessment(ctx, fb.SelfAssessmentID)
	if err != nil {
		return err
	}
	return auth.Authorize(auth.ActionAssessmentRead, caller, assessmentResource(sa))
}

func scopeFor(caller auth.UserContext) (Filter, error) {
	switch {
	case caller.UserID == "":
		return Filter{}, apperror.ErrUnauthenticated
	case caller.IsEmployee():
		return Filter{EmployeeID: caller.UserID}, nil
	case caller.IsManager():
		return Filter{ManagerID: caller.UserID}, nil
	}
	return Filter{}, nil
}

func assessmentResource(sa SelfAssessment) auth.Resource {
	return auth.Resource{SubjectID: sa.EmployeeID, OwnerID: sa.ManagerID}
}
