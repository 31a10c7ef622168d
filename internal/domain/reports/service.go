package reports

import (
	"context"
	"time"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/reviews"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"

	KindGoalReviews = "goal-reviews"
	KindTaskReviews = "task-reviews"
)

type ReviewSource interface {
	ListGoalReviews(ctx context.Context, filter reviews.Filter) ([]reviews.GoalReview, error)
	ListTaskReviews(ctx context.Context, filter reviews.Filter) ([]reviews.TaskReview, error)
}

type Service struct {
	source    ReviewSource
	projector *readmodel.Projector
	now       func() time.Time
}

func NewService(source ReviewSource, projector *readmodel.Projector) *Service {
	return &Service{source: source, projector: projector, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Counts struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"`
}

type Summary struct {
	GeneratedAt time.Time `json:"generatedAt"`
	GoalReviews Counts    `json:"goalReviews"`
	TaskReviews Counts    `json:"taskReviews"`
}

// Summary reports review completion across every open and closed cycle.
func (s *Service) Summary(ctx context.Context, caller auth.UserContext) (Summary, error) {
	if err := auth.Authorize(auth.ActionReportExport, caller, auth.Resource{}); err != nil {
		return Summary{}, err
	}
	goalReviews, err := s.source.ListGoalReviews(ctx, reviews.Filter{})
	if err != nil {
		return Summary{}, err
	}
	taskReviews, err := s.source.ListTaskReviews(ctx, reviews.Filter{})
	if err != nil {
		return Summary{}, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	goalStates := make([]reviewState, 0, len(goalReviews))
	for _, r := range goalReviews {
		goalStates = append(goalStates, reviewState{status: r.Status, due: r.DueDate})
	}
	taskStates := make([]reviewState, 0, len(taskReviews))
	for _, r := range taskReviews {
		taskStates = append(taskStates, reviewState{status: r.Status, due: r.DueDate})
	}
	return Summary{
		GeneratedAt: now,
		GoalReviews: buildCounts(goalStates, today),
		TaskReviews: buildCounts(taskStates, today),
	}, nil
}

type reviewState struct {
	status string
	due    time.Time
}

func buildCounts(states []reviewState, today time.Time) Counts {
	counts := Counts{Total: len(states)}
	for _, st := range states {
		if st.status == reviews.StatusCompleted {
			counts.Completed++
			continue
		}
		counts.Pending++
		if st.due.Before(today) {
			counts.Overdue++
		}
	}
	if counts.Total > 0 {
		counts.CompletionRate = float64(counts.Completed) / float64(counts.Total)
	}
	return counts
}
