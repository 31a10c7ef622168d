package assessments

import (
	"context"

	"perfcycle/internal/domain/tasks"
)

type StoreAPI interface {
	CreateSelfAssessment(ctx context.Context, sa SelfAssessment) (SelfAssessment, error)
	GetSelfAssessment(ctx context.Context, id string) (SelfAssessment, error)
	ListSelfAssessments(ctx context.Context, filter Filter) ([]SelfAssessment, error)
	UpdateSelfAssessmentComments(ctx context.Context, id, comments string) (SelfAssessment, error)
	// DeleteSelfAssessment refuses with a conflict while feedback is linked.
	DeleteSelfAssessment(ctx context.Context, id string) error

	// CreateFeedback inserts fb and completes its assessment atomically.
	CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
	GetFeedback(ctx context.Context, id string) (Feedback, error)
	FeedbackBySelfAssessment(ctx context.Context, selfAssessmentID string) (Feedback, error)
	ListFeedback(ctx context.Context, filter Filter) ([]Feedback, error)
	UpdateFeedbackText(ctx context.Context, id, text string) (Feedback, error)
	// DeleteFeedback removes fb and reverts its assessment to submitted
	// atomically.
	DeleteFeedback(ctx context.Context, id string) error
}

type Directory interface {
	Task(ctx context.Context, id string) (tasks.Task, error)
}
