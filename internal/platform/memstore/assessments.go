package memstore

import (
	"context"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/assessments"
)

func (s *Store) CreateSelfAssessment(_ context.Context, sa assessments.SelfAssessment) (assessments.SelfAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if anyMatch(s.assessments, func(a assessments.SelfAssessment) bool {
		return a.EmployeeID == sa.EmployeeID && a.TaskID == sa.TaskID
	}) {
		return assessments.SelfAssessment{}, apperror.Conflict("self-assessment", "a self-assessment already exists for this task")
	}
	_, taskOK := s.tasks[sa.TaskID]
	_, employeeOK := s.users[sa.EmployeeID]
	_, managerOK := s.users[sa.ManagerID]
	if !taskOK || !employeeOK || !managerOK {
		return assessments.SelfAssessment{}, apperror.Validation("self-assessment references a record that does not exist")
	}
	now := s.stamp()
	sa.ID = newID()
	sa.FeedbackID = ""
	sa.Status = assessments.StatusSubmitted
	sa.CreatedAt, sa.UpdatedAt = now, now
	s.assessments[sa.ID] = row[assessments.SelfAssessment]{seq: s.next(), item: sa}
	return sa, nil
}

func (s *Store) GetSelfAssessment(_ context.Context, id string) (assessments.SelfAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.assessments[id]
	if !ok {
		return assessments.SelfAssessment{}, apperror.NotFound("self-assessment")
	}
	return r.item, nil
}

func (s *Store) ListSelfAssessments(_ context.Context, filter assessments.Filter) ([]assessments.SelfAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.assessments, func(a assessments.SelfAssessment) bool {
		return (filter.EmployeeID == "" || a.EmployeeID == filter.EmployeeID) &&
			(filter.ManagerID == "" || a.ManagerID == filter.ManagerID)
	}, true), nil
}

func (s *Store) UpdateSelfAssessmentComments(_ context.Context, id, comments string) (assessments.SelfAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.assessments[id]
	if !ok {
		return assessments.SelfAssessment{}, apperror.NotFound("self-assessment")
	}
	r.item.Comments = comments
	r.item.UpdatedAt = s.stamp()
	s.assessments[id] = r
	return r.item, nil
}

func (s *Store) DeleteSelfAssessment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.assessments[id]
	if !ok {
		return apperror.NotFound("self-assessment")
	}
	if r.item.FeedbackID != "" {
		return apperror.Conflict("self-assessment", "self-assessment has feedback attached")
	}
	delete(s.assessments, id)
	return nil
}

func (s *Store) CreateFeedback(_ context.Context, fb assessments.Feedback) (assessments.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sa, ok := s.assessments[fb.SelfAssessmentID]
	if !ok {
		return assessments.Feedback{}, apperror.Validation("feedback references a record that does not exist")
	}
	if sa.item.FeedbackID != "" || anyMatch(s.feedback, func(f assessments.Feedback) bool {
		return f.SelfAssessmentID == fb.SelfAssessmentID
	}) {
		return assessments.Feedback{}, apperror.Conflict("feedback", "feedback already submitted for this self-assessment")
	}
	now := s.stamp()
	fb.ID = newID()
	fb.CreatedAt, fb.UpdatedAt = now, now
	s.feedback[fb.ID] = row[assessments.Feedback]{seq: s.next(), item: fb}

	sa.item.FeedbackID = fb.ID
	sa.item.Status = assessments.StatusCompleted
	sa.item.UpdatedAt = now
	s.assessments[sa.item.ID] = sa
	return fb, nil
}

func (s *Store) GetFeedback(_ context.Context, id string) (assessments.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.feedback[id]
	if !ok {
		return assessments.Feedback{}, apperror.NotFound("feedback")
	}
	return r.item, nil
}

func (s *Store) FeedbackBySelfAssessment(_ context.Context, selfAssessmentID string) (assessments.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.feedback {
		if r.item.SelfAssessmentID == selfAssessmentID {
			return r.item, nil
		}
	}
	return assessments.Feedback{}, apperror.NotFound("feedback")
}

func (s *Store) ListFeedback(_ context.Context, filter assessments.Filter) ([]assessments.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.feedback, func(f assessments.Feedback) bool {
		sa := s.assessments[f.SelfAssessmentID].item
		if filter.EmployeeID != "" && sa.EmployeeID != filter.EmployeeID {
			return false
		}
		if filter.ManagerID != "" && sa.ManagerID != filter.ManagerID && f.ManagerID != filter.ManagerID {
			return false
		}
		return true
	}, true), nil
}

func (s *Store) UpdateFeedbackText(_ context.Context, id, text string) (assessments.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.feedback[id]
	if !ok {
		return assessments.Feedback{}, apperror.NotFound("feedback")
	}
	r.item.FeedbackText = text
	r.item.Status = assessments.FeedbackUpdated
	r.item.UpdatedAt = s.stamp()
	s.feedback[id] = r
	return r.item, nil
}

func (s *Store) DeleteFeedback(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.feedback[id]
	if !ok {
		return apperror.NotFound("feedback")
	}
	if sa, ok := s.assessments[r.item.SelfAssessmentID]; ok && sa.item.FeedbackID == id {
		sa.item.FeedbackID = ""
		sa.item.Status = assessments.StatusSubmitted
		sa.item.UpdatedAt = s.stamp()
		s.assessments[sa.item.ID] = sa
	}
	delete(s.feedback, id)
	return nil
}
