package reviews

import (
	"context"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
)

func (s *Service) CreateGoalReview(ctx context.Context, caller auth.UserContext, input GoalReviewInput) (GoalReview, error) {
	if err := auth.Authorize(auth.ActionReviewCreate, caller, auth.Resource{}); err != nil {
		return GoalReview{}, err
	}
	review := GoalReview{
		GoalID:      strings.TrimSpace(input.GoalID),
		ManagerID:   strings.TrimSpace(input.ManagerID),
		TeamID:      strings.TrimSpace(input.TeamID),
		HRAdminID:   caller.UserID,
		Description: strings.TrimSpace(input.Description),
		Status:      StatusPending,
	}
	switch {
	case review.GoalID == "":
		return GoalReview{}, apperror.Validation("goalId is required")
	case review.ManagerID == "":
		return GoalReview{}, apperror.Validation("managerId is required")
	case input.DueDate == nil || input.DueDate.IsZero():
		return GoalReview{}, apperror.Validation("dueDate is required")
	}
	review.DueDate = dateOnly(*input.DueDate)

	if _, err := s.dir.Goal(ctx, review.GoalID); err != nil {
		return GoalReview{}, err
	}
	if err := s.checkUserRole(ctx, review.ManagerID, auth.RoleManager, "manager"); err != nil {
		return GoalReview{}, err
	}
	if review.TeamID != "" {
		if _, err := s.dir.Team(ctx, review.TeamID); err != nil {
			return GoalReview{}, err
		}
	}

	created, err := s.store.CreateGoalReview(ctx, review)
	if err != nil {
		return GoalReview{}, err
	}
	s.emit(ctx, notifications.Notification{
		RecipientID:     created.ManagerID,
		SenderID:        caller.UserID,
		Type:            notifications.TypeGoalReviewCreated,
		Title:           "New Goal Review Assigned",
		Message:         "A goal review is due on " + created.DueDate.Format("2006-01-02") + ".",
		Link:            notifications.EntityLink(notifications.EntityGoalReview, created.ID),
		RelatedEntityID: created.ID,
		EntityType:      notifications.EntityGoalReview,
	})
	return created, nil
}

func (s *Service) GetGoalReview(ctx context.Context, caller auth.UserContext, id string) (GoalReview, error) {
	if err := requireCaller(caller); err != nil {
		return GoalReview{}, err
	}
	review, err := s.store.GetGoalReview(ctx, id)
	if err != nil {
		return GoalReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewRead, caller, goalReviewResource(review)); err != nil {
		return GoalReview{}, err
	}
	return review, nil
}

func (s *Service) ListGoalReviews(ctx context.Context, caller auth.UserContext) ([]GoalReview, error) {
	switch {
	case caller.UserID == "":
		return nil, apperror.ErrUnauthenticated
	case caller.IsHR():
		return s.store.ListGoalReviews(ctx, Filter{})
	case caller.IsManager():
		return s.store.ListGoalReviews(ctx, Filter{AssigneeID: caller.UserID})
	}
	return nil, apperror.Forbidden("goal reviews are assigned to managers")
}

func (s *Service) UpdateGoalReview(ctx context.Context, caller auth.UserContext, id string, patch GoalReviewPatch) (GoalReview, error) {
	if err := auth.Authorize(auth.ActionReviewUpdate, caller, auth.Resource{}); err != nil {
		return GoalReview{}, err
	}
	review, err := s.store.GetGoalReview(ctx, id)
	if err != nil {
		return GoalReview{}, err
	}
	if patch.Description != nil {
		review.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return GoalReview{}, apperror.Validation("dueDate cannot be empty")
		}
		review.DueDate = dateOnly(*patch.DueDate)
	}
	if patch.GoalID != nil {
		goalID := strings.TrimSpace(*patch.GoalID)
		if goalID != review.GoalID {
			if _, err := s.dir.Goal(ctx, goalID); err != nil {
				return GoalReview{}, err
			}
			review.GoalID = goalID
		}
	}
	if patch.ManagerID != nil {
		managerID := strings.TrimSpace(*patch.ManagerID)
		if managerID != review.ManagerID {
			if err := s.checkUserRole(ctx, managerID, auth.RoleManager, "manager"); err != nil {
				return GoalReview{}, err
			}
			review.ManagerID = managerID
		}
	}
	if patch.TeamID != nil {
		teamID := strings.TrimSpace(*patch.TeamID)
		if teamID != "" && teamID != review.TeamID {
			if _, err := s.dir.Team(ctx, teamID); err != nil {
				return GoalReview{}, err
			}
		}
		review.TeamID = teamID
	}
	return s.store.UpdateGoalReview(ctx, review)
}

// SubmitGoalReview completes the review for its assigned manager and
// notifies the HR admin who opened it.
func (s *Service) SubmitGoalReview(ctx context.Context, caller auth.UserContext, id, text string) (GoalReview, error) {
	if err := requireCaller(caller); err != nil {
		return GoalReview{}, err
	}
	review, err := s.store.GetGoalReview(ctx, id)
	if err != nil {
		return GoalReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewSubmit, caller, goalReviewResource(review)); err != nil {
		return GoalReview{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return GoalReview{}, apperror.Validation("managerReview is required")
	}
	submitted, err := s.store.SubmitGoalReview(ctx, id, text, s.now().UTC())
	if err != nil {
		return GoalReview{}, err
	}
	s.emit(ctx, notifications.Notification{
		RecipientID:     submitted.HRAdminID,
		SenderID:        caller.UserID,
		Type:            notifications.TypeGoalReviewSubmitted,
		Title:           "Goal Review Submitted",
		Message:         "A manager has submitted their goal review.",
		Link:            notifications.EntityLink(notifications.EntityGoalReview, submitted.ID),
		RelatedEntityID: submitted.ID,
		EntityType:      notifications.EntityGoalReview,
	})
	return submitted, nil
}

func (s *Service) ReopenGoalReview(ctx context.Context, caller auth.UserContext, id string) (GoalReview, error) {
	if err := requireCaller(caller); err != nil {
		return GoalReview{}, err
	}
	review, err := s.store.GetGoalReview(ctx, id)
	if err != nil {
		return GoalReview{}, err
	}
	if err := auth.Authorize(auth.ActionReviewReopen, caller, goalReviewResource(review)); err != nil {
		return GoalReview{}, err
	}
	return s.store.ReopenGoalReview(ctx, id)
}

func (s *Service) DeleteGoalReview(ctx context.Context, caller auth.UserContext, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	review, err := s.store.GetGoalReview(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionReviewDelete, caller, goalReviewResource(review)); err != nil {
		return err
	}
	return s.store.DeleteGoalReview(ctx, id)
}

func goalReviewResource(review GoalReview) auth.Resource {
	return auth.Resource{AssigneeID: review.ManagerID, CreatorID: review.HRAdminID}
}
