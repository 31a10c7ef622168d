package reports_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/directory"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/reports"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/platform/memstore"
)

var now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*reports.Service, auth.UserContext, auth.UserContext) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	hr, err := store.CreateUser(ctx, org.User{Username: "hana", Email: "hana@example.com", Role: auth.RoleHR})
	require.NoError(t, err)
	mgr, err := store.CreateUser(ctx, org.User{Username: "milo", Email: "milo@example.com", Role: auth.RoleManager})
	require.NoError(t, err)
	team, err := store.CreateTeam(ctx, org.Team{Name: "Core", CreatedBy: hr.ID})
	require.NoError(t, err)

	for i, title := range []string{"Launch, phase 1", "Hiring"} {
		goal, err := store.CreateGoal(ctx, goals.Goal{Title: title, Status: goals.StatusScheduled, ManagerID: mgr.ID, TeamID: team.ID})
		require.NoError(t, err)
		review, err := store.CreateGoalReview(ctx, reviews.GoalReview{
			GoalID: goal.ID, ManagerID: mgr.ID, HRAdminID: hr.ID, Status: reviews.StatusPending,
			DueDate: time.Date(2026, 4, 1+i*20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		if i == 0 {
			_, err = store.SubmitGoalReview(ctx, review.ID, "Shipped", now)
			require.NoError(t, err)
		}
	}
	pending, err := store.CreateGoal(ctx, goals.Goal{Title: "Overdue", Status: goals.StatusScheduled, ManagerID: mgr.ID, TeamID: team.ID})
	require.NoError(t, err)
	_, err = store.CreateGoalReview(ctx, reviews.GoalReview{
		GoalID: pending.ID, ManagerID: mgr.ID, HRAdminID: hr.ID, Status: reviews.StatusPending,
		DueDate: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	svc := reports.NewService(store, readmodel.New(directory.New(store, store, store))).WithClock(func() time.Time { return now })
	return svc, auth.UserContext{UserID: hr.ID, RoleName: auth.RoleHR}, auth.UserContext{UserID: mgr.ID, RoleName: auth.RoleManager}
}

func TestSummary(t *testing.T) {
	svc, hr, mgr := setup(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx, mgr)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	summary, err := svc.Summary(ctx, hr)
	require.NoError(t, err)
	assert.Equal(t, reports.Counts{Total: 3, Completed: 1, Pending: 2, Overdue: 1, CompletionRate: 1.0 / 3.0}, summary.GoalReviews)
	assert.Equal(t, reports.Counts{}, summary.TaskReviews)
	assert.True(t, summary.GeneratedAt.Equal(now))
}

func TestGoalReviewTableUsesNames(t *testing.T) {
	svc, hr, _ := setup(t)
	table, err := svc.Table(context.Background(), hr, reports.KindGoalReviews)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Launch, phase 1", "milo", reviews.StatusCompleted, "2026-04-01", "2026-04-10", "Shipped"}, table.Rows[0])

	_, err = svc.Table(context.Background(), hr, "salaries")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestExportCSV(t *testing.T) {
	svc, hr, _ := setup(t)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), hr, reports.KindGoalReviews, reports.FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Goal", records[0][0])
	assert.Equal(t, "Launch, phase 1", records[1][0])
}

func TestExportPDF(t *testing.T) {
	svc, _, _ := setup(t)
	var buf bytes.Buffer
	require.NoError(t, svc.ExportUnchecked(context.Background(), reports.KindTaskReviews, reports.FormatPDF, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	err := svc.ExportUnchecked(context.Background(), reports.KindTaskReviews, "xlsx", &buf)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
