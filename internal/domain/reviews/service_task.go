package reviews

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/tasks"
)

type taskReviewRefs struct {
	task tasks.Task
}

// resolveTaskReviewRefs looks every reference up concurrently and reports
// the first failure in a fixed order: department, team, goal, task, employee.
func (s *Service) resolveTaskReviewRefs(ctx context.Context, review TaskReview) (taskReviewRefs, error) {
	var (
		refs   taskReviewRefs
		checks [5]error
		g      errgroup.Group
	)
	g.Go(func() error {
		_, checks[0] = s.dir.Department(ctx, review.DepartmentID)
		return nil
	})
	g.Go(func() error {
		_, checks[1] = s.dir.Team(ctx, review.TeamID)
		return nil
	})
	g.Go(func() error {
		_, checks[2] = s.dir.Goal(ctx, review.ProjectID)
		return nil
	})
	g.Go(func() error {
		refs.task, checks[3] = s.dir.Task(ctx, review.TaskID)
		return nil
	})
	g.Go(func() error {
		checks[4] = s.checkUserRole(ctx, review.EmployeeID, auth.RoleEmployee, "employee")
		return nil
	})
	_ = g.Wait()
	for _, err := range checks {
		if err != nil {
			return taskReviewRefs{}, err
		}
	}
	return refs, nil
}

func (s *Service) CreateTaskReview(ctx context.Context, caller auth.UserContext, input TaskReviewInput) (TaskReview, error) {
	if err := auth.Authorize(auth.ActionReviewCreate, caller, auth.Resource{}); err != nil {
		return TaskReview{}, err
	}
	review := TaskReview{
		TaskID:       strings.TrimSpace(input.TaskID),
		DepartmentID: strings.TrimSpace(input.DepartmentID),
		TeamID:       strings.TrimSpace(input.TeamID),
		ProjectID:    strings.TrimSpace(input.ProjectID),
		EmployeeID:   strings.TrimSpace(input.EmployeeID),
		HRAdminID:    caller.UserID,
		Description:  strings.TrimSpace(input.Description),
		Status:       StatusPending,
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return TaskReview{}, apperror.Validation("dueDate is required")
	}
	review.DueDate = dateOnly(*input.DueDate)

	refs, err := s.resolveTaskReviewRefs(ctx, review)
	if err != nil {
		return TaskReview{}, err
	}
	review.TaskDueDate = refs.task.DueDate

	created, err := s.store.CreateTaskReview(ctx, review)
	if err != nil {
		return TaskReview{}, err
	}
	s.emit(ctx, notifications.Notification{
		RecipientID:     created.EmployeeID,
		SenderID:        caller.UserID,
		Type:            notifications.TypeTaskReviewCreated,
		Title:           "New Task Review Assigned",
		Message:         "A task review is due on " + created.DueDate.Format("2006-01-02") + ".",
		Link:            notifications.EntityLink(notifications.EntityTaskReview, created.ID),
		RelatedEntityID: created.ID,
		EntityType:      notifications.EntityTaskReview,
	})
	return created, nil
}

func (s *Service) GetTaskReview(ctx context.Context, caller auth.UserContext, id string) (TaskReview, error) {
	if err := requireCaller(caller); err != nil {
		return TaskReview{}, err
	}
	review, err := s.store.GetTaskReview(ctx, id)
	if err != nil {
		return TaskReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewRead, caller, taskReviewResource(review)); err != nil {
		return TaskReview{}, err
	}
	return review, nil
}

func (s *Service) ListTaskReviews(ctx context.Context, caller auth.UserContext) ([]TaskReview, error) {
	switch {
	case caller.UserID == "":
		return nil, apperror.ErrUnauthenticated
	case caller.IsHR():
		return s.store.ListTaskReviews(ctx, Filter{})
	case caller.IsEmployee():
		return s.store.ListTaskReviews(ctx, Filter{AssigneeID: caller.UserID})
	}
	return nil, apperror.Forbidden("task reviews are assigned to employees")
}

func (s *Service) ListSubmittedTaskReviews(ctx context.Context, caller auth.UserContext) ([]TaskReview, error) {
	if err := auth.Authorize(auth.ActionReviewUpdate, caller, auth.Resource{}); err != nil {
		return nil, err
	}
	return s.store.ListTaskReviews(ctx, Filter{Status: StatusCompleted})
}

// UpdateTaskReview re-validates each changed reference. The task due date
// snapshot only moves when the review is pointed at a different task.
func (s *Service) UpdateTaskReview(ctx context.Context, caller auth.UserContext, id string, patch TaskReviewPatch) (TaskReview, error) {
	if err := auth.Authorize(auth.ActionReviewUpdate, caller, auth.Resource{}); err != nil {
		return TaskReview{}, err
	}
	review, err := s.store.GetTaskReview(ctx, id)
	if err != nil {
		return TaskReview{}, err
	}
	if patch.Description != nil {
		review.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return TaskReview{}, apperror.Validation("dueDate cannot be empty")
		}
		review.DueDate = dateOnly(*patch.DueDate)
	}
	if next, changed := changedRef(patch.DepartmentID, review.DepartmentID); changed {
		if _, err := s.dir.Department(ctx, next); err != nil {
			return TaskReview{}, err
		}
		review.DepartmentID = next
	}
	if next, changed := changedRef(patch.TeamID, review.TeamID); changed {
		if _, err := s.dir.Team(ctx, next); err != nil {
			return TaskReview{}, err
		}
		review.TeamID = next
	}
	if next, changed := changedRef(patch.ProjectID, review.ProjectID); changed {
		if _, err := s.dir.Goal(ctx, next); err != nil {
			return TaskReview{}, err
		}
		review.ProjectID = next
	}
	if next, changed := changedRef(patch.TaskID, review.TaskID); changed {
		task, err := s.dir.Task(ctx, next)
		if err != nil {
			return TaskReview{}, err
		}
		review.TaskID = next
		review.TaskDueDate = task.DueDate
	}
	if next, changed := changedRef(patch.EmployeeID, review.EmployeeID); changed {
		if err := s.checkUserRole(ctx, next, auth.RoleEmployee, "employee"); err != nil {
			return TaskReview{}, err
		}
		review.EmployeeID = next
	}
	return s.store.UpdateTaskReview(ctx, review)
}

func (s *Service) SubmitTaskReview(ctx context.Context, caller auth.UserContext, id, text string) (TaskReview, error) {
	if err := requireCaller(caller); err != nil {
		return TaskReview{}, err
	}
	review, err := s.store.GetTaskReview(ctx, id)
	if err != nil {
		return TaskReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewSubmit, caller, taskReviewResource(review)); err != nil {
		return TaskReview{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TaskReview{}, apperror.Validation("employeeReview is required")
	}
	submitted, err := s.store.SubmitTaskReview(ctx, id, text, s.now().UTC())
	if err != nil {
		return TaskReview{}, err
	}
	s.emit(ctx, notifications.Notification{
		RecipientID:     submitted.HRAdminID,
		SenderID:        caller.UserID,
		Type:            notifications.TypeTaskReviewSubmitted,
		Title:           "Task Review Submitted",
		Message:         "An employee has submitted their task review.",
		Link:            notifications.EntityLink(notifications.EntityTaskReview, submitted.ID),
		RelatedEntityID: submitted.ID,
		EntityType:      notifications.EntityTaskReview,
	})
	return submitted, nil
}

func (s *Service) ReopenTaskReview(ctx context.Context, caller auth.UserContext, id string) (TaskReview, error) {
	if err := requireCaller(caller); err != nil {
		return TaskReview{}, err
	}
	review, err := s.store.GetTaskReview(ctx, id)
	if err != nil {
		return TaskReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewReopen, caller, taskReviewResource(review)); err != nil {
		return TaskReview{}, err
	}
	return s.store.ReopenTaskReview(ctx, id)
}

func (s *Service) DeleteTaskReview(ctx context.Context, caller auth.UserContext, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	review, err := s.store.GetTaskReview(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionReviewDelete, caller, taskReviewResource(review)); err != nil {
		return err
	}
	return s.store.DeleteTaskReview(ctx, id)
}

func changedRef(patch *string, current string) (string, bool) {
	if patch == nil {
		return current, false
	}
	next := strings.TrimSpace(*patch)
	return next, next != current
}

func taskReviewResource(review TaskReview) auth.Resource {
	return auth.Resource{AssigneeID: review.EmployeeID, CreatorID: review.HRAdminID}
}
