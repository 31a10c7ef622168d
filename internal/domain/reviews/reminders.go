package reviews

import (
	"context"
	"log/slog"
	"time"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
)

// SweepReminders is the HR-triggered entry point for SendDueReviewReminders.
func (s *Service) SweepReminders(ctx context.Context, caller auth.UserContext, day time.Time) (ReminderResult, error) {
	if err := auth.Authorize(auth.ActionReviewSweep, caller, auth.Resource{}); err != nil {
		return ReminderResult{}, err
	}
	return s.SendDueReviewReminders(ctx, day)
}

// SendDueReviewReminders notifies the assignee of every pending review due
// on day. Each recipient gets at most one reminder per review per day, so
// running the sweep again is harmless.
func (s *Service) SendDueReviewReminders(ctx context.Context, day time.Time) (ReminderResult, error) {
	day = dateOnly(day)
	result := ReminderResult{Day: day.Format("2006-01-02")}

	goalReviews, err := s.store.ListGoalReviews(ctx, Filter{Status: StatusPending, DueOn: &day})
	if err != nil {
		return result, err
	}
	taskReviews, err := s.store.ListTaskReviews(ctx, Filter{Status: StatusPending, DueOn: &day})
	if err != nil {
		return result, err
	}
	result.GoalReviews = len(goalReviews)
	result.TaskReviews = len(taskReviews)

	for _, review := range goalReviews {
		s.remind(ctx, &result, reminder(review.ManagerID, review.HRAdminID, review.ID, notifications.EntityGoalReview, "goal", day))
	}
	for _, review := range taskReviews {
		s.remind(ctx, &result, reminder(review.EmployeeID, review.HRAdminID, review.ID, notifications.EntityTaskReview, "task", day))
	}
	s.metrics.Reminders(result.Sent, result.Skipped)
	return result, nil
}

func (s *Service) remind(ctx context.Context, result *ReminderResult, n notifications.Notification) {
	if s.reminders == nil {
		result.Skipped++
		return
	}
	sent, err := s.reminders.CreateOnce(ctx, n)
	switch {
	case err != nil:
		result.Failed++
		slog.Warn("review reminder failed", "entityId", n.RelatedEntityID, "recipient", n.RecipientID, "err", err)
	case sent:
		result.Sent++
	default:
		result.Skipped++
	}
}

func reminder(recipientID, senderID, reviewID, entityType, kind string, day time.Time) notifications.Notification {
	return notifications.Notification{
		RecipientID:     recipientID,
		SenderID:        senderID,
		Type:            notifications.TypeReminder,
		Title:           "Review Due Today",
		Message:         "Your " + kind + " review is due today.",
		Link:            notifications.EntityLink(entityType, reviewID),
		RelatedEntityID: reviewID,
		EntityType:      entityType,
		DedupeKey:       notifications.ReminderKey(recipientID, reviewID, day),
	}
}
