package memstore

import (
	"context"
	"time"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/reviews"
)

func matchReview(filter reviews.Filter, assignee, creator, status string, due time.Time) bool {
	return (filter.AssigneeID == "" || assignee == filter.AssigneeID) &&
		(filter.CreatorID == "" || creator == filter.CreatorID) &&
		(filter.Status == "" || status == filter.Status) &&
		(filter.DueOn == nil || sameDay(due, *filter.DueOn))
}

func (s *Store) checkGoalReview(review reviews.GoalReview) error {
	for id, r := range s.goalReviews {
		if id != review.ID && r.item.GoalID == review.GoalID {
			return apperror.Conflict("goal review", "goal already has a review cycle")
		}
	}
	_, goalOK := s.goals[review.GoalID]
	_, managerOK := s.users[review.ManagerID]
	_, hrOK := s.users[review.HRAdminID]
	ok := goalOK && managerOK && hrOK
	if review.TeamID != "" {
		_, teamOK := s.teams[review.TeamID]
		ok = ok && teamOK
	}
	if !ok {
		return apperror.Validation("goal review references a record that does not exist")
	}
	return nil
}

func (s *Store) CreateGoalReview(_ context.Context, review reviews.GoalReview) (reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkGoalReview(review); err != nil {
		return reviews.GoalReview{}, err
	}
	now := s.stamp()
	review.ID = newID()
	review.CreatedAt, review.UpdatedAt = now, now
	s.goalReviews[review.ID] = row[reviews.GoalReview]{seq: s.next(), item: review}
	return review, nil
}

func (s *Store) GetGoalReview(_ context.Context, id string) (reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goalReviews[id]
	if !ok {
		return reviews.GoalReview{}, apperror.NotFound("goal review")
	}
	return r.item, nil
}

func (s *Store) ListGoalReviews(_ context.Context, filter reviews.Filter) ([]reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.goalReviews, func(r reviews.GoalReview) bool {
		return matchReview(filter, r.ManagerID, r.HRAdminID, r.Status, r.DueDate)
	}, false), nil
}

func (s *Store) UpdateGoalReview(_ context.Context, review reviews.GoalReview) (reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goalReviews[review.ID]
	if !ok {
		return reviews.GoalReview{}, apperror.NotFound("goal review")
	}
	if err := s.checkGoalReview(review); err != nil {
		return reviews.GoalReview{}, err
	}
	r.item.GoalID = review.GoalID
	r.item.ManagerID = review.ManagerID
	r.item.TeamID = review.TeamID
	r.item.Description = review.Description
	r.item.DueDate = review.DueDate
	r.item.UpdatedAt = s.stamp()
	s.goalReviews[review.ID] = r
	return r.item, nil
}

func (s *Store) SubmitGoalReview(_ context.Context, id, text string, at time.Time) (reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goalReviews[id]
	if !ok {
		return reviews.GoalReview{}, apperror.NotFound("goal review")
	}
	if r.item.Status != reviews.StatusPending {
		return reviews.GoalReview{}, apperror.Conflict("goal review", "review has already been submitted")
	}
	r.item.Status = reviews.StatusCompleted
	r.item.ManagerReview = text
	r.item.SubmissionDate = &at
	r.item.UpdatedAt = s.stamp()
	s.goalReviews[id] = r
	return r.item, nil
}

func (s *Store) ReopenGoalReview(_ context.Context, id string) (reviews.GoalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goalReviews[id]
	if !ok {
		return reviews.GoalReview{}, apperror.NotFound("goal review")
	}
	if r.item.Status != reviews.StatusCompleted {
		return reviews.GoalReview{}, apperror.Conflict("goal review", "review is not completed")
	}
	r.item.Status = reviews.StatusPending
	r.item.SubmissionDate = nil
	r.item.UpdatedAt = s.stamp()
	s.goalReviews[id] = r
	return r.item, nil
}

func (s *Store) DeleteGoalReview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goalReviews[id]; !ok {
		return apperror.NotFound("goal review")
	}
	delete(s.goalReviews, id)
	return nil
}

func (s *Store) checkTaskReview(review reviews.TaskReview) error {
	for id, r := range s.taskReviews {
		if id != review.ID && r.item.TaskID == review.TaskID {
			return apperror.Conflict("task review", "task already has a review cycle")
		}
	}
	_, taskOK := s.tasks[review.TaskID]
	_, deptOK := s.departments[review.DepartmentID]
	_, teamOK := s.teams[review.TeamID]
	_, goalOK := s.goals[review.ProjectID]
	_, employeeOK := s.users[review.EmployeeID]
	_, hrOK := s.users[review.HRAdminID]
	if !taskOK || !deptOK || !teamOK || !goalOK || !employeeOK || !hrOK {
		return apperror.Validation("task review references a record that does not exist")
	}
	return nil
}

func (s *Store) CreateTaskReview(_ context.Context, review reviews.TaskReview) (reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTaskReview(review); err != nil {
		return reviews.TaskReview{}, err
	}
	now := s.stamp()
	review.ID = newID()
	review.CreatedAt, review.UpdatedAt = now, now
	s.taskReviews[review.ID] = row[reviews.TaskReview]{seq: s.next(), item: review}
	return review, nil
}

func (s *Store) GetTaskReview(_ context.Context, id string) (reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.taskReviews[id]
	if !ok {
		return reviews.TaskReview{}, apperror.NotFound("task review")
	}
	return r.item, nil
}

func (s *Store) ListTaskReviews(_ context.Context, filter reviews.Filter) ([]reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.taskReviews, func(r reviews.TaskReview) bool {
		return matchReview(filter, r.EmployeeID, r.HRAdminID, r.Status, r.DueDate)
	}, false), nil
}

func (s *Store) UpdateTaskReview(_ context.Context, review reviews.TaskReview) (reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.taskReviews[review.ID]
	if !ok {
		return reviews.TaskReview{}, apperror.NotFound("task review")
	}
	if err := s.checkTaskReview(review); err != nil {
		return reviews.TaskReview{}, err
	}
	r.item.TaskID = review.TaskID
	r.item.DepartmentID = review.DepartmentID
	r.item.TeamID = review.TeamID
	r.item.ProjectID = review.ProjectID
	r.item.EmployeeID = review.EmployeeID
	r.item.Description = review.Description
	r.item.DueDate = review.DueDate
	r.item.TaskDueDate = review.TaskDueDate
	r.item.UpdatedAt = s.stamp()
	s.taskReviews[review.ID] = r
	return r.item, nil
}

func (s *Store) SubmitTaskReview(_ context.Context, id, text string, at time.Time) (reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.taskReviews[id]
	if !ok {
		return reviews.TaskReview{}, apperror.NotFound("task review")
	}
	if r.item.Status != reviews.StatusPending {
		return reviews.TaskReview{}, apperror.Conflict("task review", "review has already been submitted")
	}
	r.item.Status = reviews.StatusCompleted
	r.item.EmployeeReview = text
	r.item.SubmissionDate = &at
	r.item.UpdatedAt = s.stamp()
	s.taskReviews[id] = r
	return r.item, nil
}

func (s *Store) ReopenTaskReview(_ context.Context, id string) (reviews.TaskReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.taskReviews[id]
	if !ok {
		return reviews.TaskReview{}, apperror.NotFound("task review")
	}
	if r.item.Status != reviews.StatusCompleted {
		return reviews.TaskReview{}, apperror.Conflict("task review", "review is not completed")
	}
	r.item.Status = reviews.StatusPending
	r.item.SubmissionDate = nil
	r.item.UpdatedAt = s.stamp()
	s.taskReviews[id] = r
	return r.item, nil
}

func (s *Store) DeleteTaskReview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taskReviews[id]; !ok {
		return apperror.NotFound("task review")
	}
	delete(s.taskReviews, id)
	return nil
}
