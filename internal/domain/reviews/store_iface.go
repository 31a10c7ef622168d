package reviews

import (
	"context"
	"time"

	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/tasks"
)

type StoreAPI interface {
	CreateGoalReview(ctx context.Context, review GoalReview) (GoalReview, error)
	GetGoalReview(ctx context.Context, id string) (GoalReview, error)
	ListGoalReviews(ctx context.Context, filter Filter) ([]GoalReview, error)
	UpdateGoalReview(ctx context.Context, review GoalReview) (GoalReview, error)
	// SubmitGoalReview completes a pending review and fails with a conflict
	// when the review is no longer pending.
	SubmitGoalReview(ctx context.Context, id, text string, at time.Time) (GoalReview, error)
	ReopenGoalReview(ctx context.Context, id string) (GoalReview, error)
	DeleteGoalReview(ctx context.Context, id string) error

	CreateTaskReview(ctx context.Context, review TaskReview) (TaskReview, error)
	GetTaskReview(ctx context.Context, id string) (TaskReview, error)
	ListTaskReviews(ctx context.Context, filter Filter) ([]TaskReview, error)
	UpdateTaskReview(ctx context.Context, review TaskReview) (TaskReview, error)
	SubmitTaskReview(ctx context.Context, id, text string, at time.Time) (TaskReview, error)
	ReopenTaskReview(ctx context.Context, id string) (TaskReview, error)
	DeleteTaskReview(ctx context.Context, id string) error
}

type Directory interface {
	User(ctx context.Context, id string) (org.User, error)
	Department(ctx context.Context, id string) (org.Department, error)
	Team(ctx context.Context, id string) (org.Team, error)
	Goal(ctx context.Context, id string) (goals.Goal, error)
	Task(ctx context.Context, id string) (tasks.Task, error)
}

// ReminderSink writes a notification at most once per dedupe key.
type ReminderSink interface {
	CreateOnce(ctx context.Context, n notifications.Notification) (bool, error)
}
