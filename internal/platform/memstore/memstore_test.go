package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/platform/jobs"
)

type fixture struct {
	store            *Store
	hr, manager, emp org.User
	team             org.Team
	goal             goals.Goal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := New()
	f := fixture{store: s}
	var err error
	f.hr, err = s.CreateUser(ctx, org.User{Username: "hr", Email: "hr@example.com", Role: "hr"})
	require.NoError(t, err)
	f.manager, err = s.CreateUser(ctx, org.User{Username: "mgr", Email: "mgr@example.com", Role: "manager"})
	require.NoError(t, err)
	f.emp, err = s.CreateUser(ctx, org.User{Username: "emp", Email: "emp@example.com", Role: "employee"})
	require.NoError(t, err)
	f.team, err = s.CreateTeam(ctx, org.Team{Name: "Core", Members: []string{f.emp.ID}, CreatedBy: f.hr.ID})
	require.NoError(t, err)
	f.goal, err = s.CreateGoal(ctx, goals.Goal{Title: "Ship", ManagerID: f.manager.ID, TeamID: f.team.ID, Status: goals.StatusScheduled})
	require.NoError(t, err)
	return f
}

func TestUserUniqueness(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CreateUser(context.Background(), org.User{Username: "other", Email: "hr@example.com"})
	assert.True(t, apperror.IsConflict(err))

	got, err := f.store.UserByLogin(context.Background(), "mgr")
	require.NoError(t, err)
	assert.Equal(t, f.manager.ID, got.ID)
}

func TestDeleteUserRestrictedAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.DeleteUser(ctx, f.manager.ID)
	assert.True(t, apperror.IsConflict(err), "goal still points at the manager")

	_, err = f.store.CreateNotification(ctx, notifications.Notification{RecipientID: f.emp.ID, Type: notifications.TypeReminder, Title: "t", Message: "m"})
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteUser(ctx, f.emp.ID))

	team, err := f.store.GetTeam(ctx, f.team.ID)
	require.NoError(t, err)
	assert.Empty(t, team.Members)
	items, err := f.store.ListNotifications(ctx, f.emp.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGoalReviewOnePerGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := reviews.GoalReview{GoalID: f.goal.ID, ManagerID: f.manager.ID, HRAdminID: f.hr.ID, DueDate: time.Now(), Status: reviews.StatusPending}

	_, err := f.store.CreateGoalReview(ctx, review)
	require.NoError(t, err)
	_, err = f.store.CreateGoalReview(ctx, review)
	assert.True(t, apperror.IsConflict(err))

	review.GoalID = "missing"
	_, err = f.store.CreateGoalReview(ctx, review)
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))

	err = f.store.DeleteTeam(ctx, f.team.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreateNotificationOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := notifications.Notification{RecipientID: f.manager.ID, Type: notifications.TypeReminder, Title: "Due", Message: "today", DedupeKey: "k1"}

	_, created, err := f.store.CreateNotificationOnce(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = f.store.CreateNotificationOnce(ctx, n)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := f.store.CountUnread(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJobRunsNewestFirst(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	ctx := context.Background()

	first, err := s.StartRun(ctx, "review_reminders")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, first, jobs.StatusCompleted, []byte(`{"sent":1}`)))
	second, err := s.StartRun(ctx, "review_reminders")
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, "review_reminders", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, jobs.StatusCompleted, runs[1].Status)
	assert.NotNil(t, runs[1].CompletedAt)

	assert.True(t, apperror.IsNotFound(s.FinishRun(ctx, "nope", jobs.StatusFailed, nil)))
}
