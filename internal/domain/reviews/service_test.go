package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/directory"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/platform/memstore"
)

var (
	submittedAt = time.Date(2026, 3, 30, 9, 30, 0, 0, time.UTC)
	dueDay      = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	taskDue     = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc      *reviews.Service
	store    *memstore.Store
	hr       auth.UserContext
	otherHR  auth.UserContext
	manager  auth.UserContext
	manager2 auth.UserContext
	employee auth.UserContext
	deptID   string
	teamID   string
	goalID   string
	taskID   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	mk := func(name, role string) auth.UserContext {
		u, err := store.CreateUser(ctx, org.User{Username: name, Email: name + "@example.com", Role: role})
		require.NoError(t, err)
		return auth.UserContext{UserID: u.ID, RoleName: role}
	}
	f := fixture{
		store:    store,
		hr:       mk("hr", auth.RoleHR),
		otherHR:  mk("hr2", auth.RoleHR),
		manager:  mk("manager", auth.RoleManager),
		manager2: mk("manager2", auth.RoleManager),
		employee: mk("employee", auth.RoleEmployee),
	}
	dept, err := store.CreateDepartment(ctx, org.Department{Name: "Engineering", CreatedBy: f.hr.UserID})
	require.NoError(t, err)
	team, err := store.CreateTeam(ctx, org.Team{Name: "Core", DepartmentID: dept.ID, Members: []string{f.employee.UserID}, CreatedBy: f.hr.UserID})
	require.NoError(t, err)
	goal, err := store.CreateGoal(ctx, goals.Goal{Title: "Q1 launch", Status: goals.StatusScheduled, ManagerID: f.manager.UserID, TeamID: team.ID})
	require.NoError(t, err)
	due := taskDue
	task, err := store.CreateTask(ctx, tasks.Task{
		ProjectID: goal.ID, Title: "Write docs", Status: goals.StatusScheduled, Priority: tasks.PriorityMedium,
		EmployeeID: f.employee.UserID, ManagerID: f.manager.UserID, DueDate: &due,
	})
	require.NoError(t, err)
	f.deptID, f.teamID, f.goalID, f.taskID = dept.ID, team.ID, goal.ID, task.ID

	notify := notifications.New(store, nil)
	f.svc = reviews.NewService(store, directory.New(store, store, store), notify, notify).
		WithClock(func() time.Time { return submittedAt })
	return f
}

func (f fixture) goalReview(t *testing.T) reviews.GoalReview {
	t.Helper()
	due := dueDay
	review, err := f.svc.CreateGoalReview(context.Background(), f.hr, reviews.GoalReviewInput{
		GoalID: f.goalID, ManagerID: f.manager.UserID, Description: "Quarterly", DueDate: &due,
	})
	require.NoError(t, err)
	return review
}

func (f fixture) taskReview(t *testing.T) reviews.TaskReview {
	t.Helper()
	due := dueDay
	review, err := f.svc.CreateTaskReview(context.Background(), f.hr, reviews.TaskReviewInput{
		TaskID: f.taskID, DepartmentID: f.deptID, TeamID: f.teamID, ProjectID: f.goalID,
		EmployeeID: f.employee.UserID, DueDate: &due,
	})
	require.NoError(t, err)
	return review
}

func (f fixture) inbox(t *testing.T, userID string) []notifications.Notification {
	t.Helper()
	items, err := f.store.ListNotifications(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return items
}

func TestGoalReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review := f.goalReview(t)
	assert.Equal(t, reviews.StatusPending, review.Status)
	assert.Equal(t, f.hr.UserID, review.HRAdminID)
	assert.Nil(t, review.SubmissionDate)

	inbox := f.inbox(t, f.manager.UserID)
	require.Len(t, inbox, 1)
	assert.Equal(t, notifications.TypeGoalReviewCreated, inbox[0].Type)
	assert.Equal(t, review.ID, inbox[0].RelatedEntityID)

	submitted, err := f.svc.SubmitGoalReview(ctx, f.manager, review.ID, "Delivered on time")
	require.NoError(t, err)
	assert.Equal(t, reviews.StatusCompleted, submitted.Status)
	assert.Equal(t, "Delivered on time", submitted.ManagerReview)
	require.NotNil(t, submitted.SubmissionDate)
	assert.True(t, submitted.SubmissionDate.Equal(submittedAt))

	hrInbox := f.inbox(t, f.hr.UserID)
	require.Len(t, hrInbox, 1)
	assert.Equal(t, notifications.TypeGoalReviewSubmitted, hrInbox[0].Type)
	assert.Equal(t, f.manager.UserID, hrInbox[0].SenderID)
}

func TestGoalReviewUniquePerGoal(t *testing.T) {
	f := newFixture(t)
	f.goalReview(t)

	due := dueDay
	_, err := f.svc.CreateGoalReview(context.Background(), f.otherHR, reviews.GoalReviewInput{
		GoalID: f.goalID, ManagerID: f.manager2.UserID, DueDate: &due,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestGoalReviewCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := dueDay

	cases := []struct {
		name   string
		caller auth.UserContext
		input  reviews.GoalReviewInput
		code   apperror.Code
	}{
		{"manager cannot create", f.manager, reviews.GoalReviewInput{GoalID: f.goalID, ManagerID: f.manager.UserID, DueDate: &due}, apperror.CodeForbidden},
		{"missing due date", f.hr, reviews.GoalReviewInput{GoalID: f.goalID, ManagerID: f.manager.UserID}, apperror.CodeValidation},
		{"unknown goal", f.hr, reviews.GoalReviewInput{GoalID: "missing", ManagerID: f.manager.UserID, DueDate: &due}, apperror.CodeNotFound},
		{"assignee must be manager", f.hr, reviews.GoalReviewInput{GoalID: f.goalID, ManagerID: f.employee.UserID, DueDate: &due}, apperror.CodeValidation},
		{"unknown manager", f.hr, reviews.GoalReviewInput{GoalID: f.goalID, ManagerID: "ghost", DueDate: &due}, apperror.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateGoalReview(ctx, tc.caller, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperror.GetCode(err))
		})
	}
}

func TestSubmitByNonAssigneeLeavesReviewPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)

	_, err := f.svc.SubmitGoalReview(ctx, f.manager2, review.ID, "not mine")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	_, err = f.svc.SubmitGoalReview(ctx, f.hr, review.ID, "HR cannot submit")
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	current, err := f.svc.GetGoalReview(ctx, f.hr, review.ID)
	require.NoError(t, err)
	assert.Equal(t, reviews.StatusPending, current.Status)
	assert.Empty(t, current.ManagerReview)
	assert.Empty(t, f.inbox(t, f.hr.UserID))
}

func TestResubmitConflictsUntilReopened(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)

	_, err := f.svc.SubmitGoalReview(ctx, f.manager, review.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.SubmitGoalReview(ctx, f.manager, review.ID, "second")
	assert.True(t, apperror.IsConflict(err))

	_, err = f.svc.ReopenGoalReview(ctx, f.otherHR, review.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "only the creating HR admin reopens")

	reopened, err := f.svc.ReopenGoalReview(ctx, f.hr, review.ID)
	require.NoError(t, err)
	assert.Equal(t, reviews.StatusPending, reopened.Status)
	assert.Nil(t, reopened.SubmissionDate)

	resubmitted, err := f.svc.SubmitGoalReview(ctx, f.manager, review.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", resubmitted.ManagerReview)

	_, err = f.svc.ReopenGoalReview(ctx, f.hr, review.ID)
	require.NoError(t, err)
	_, err = f.svc.ReopenGoalReview(ctx, f.hr, review.ID)
	assert.True(t, apperror.IsConflict(err), "pending review cannot be reopened")
}

func TestSubmitRequiresText(t *testing.T) {
	f := newFixture(t)
	review := f.goalReview(t)
	_, err := f.svc.SubmitGoalReview(context.Background(), f.manager, review.ID, "   ")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestGoalReviewListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.goalReview(t)

	all, err := f.svc.ListGoalReviews(ctx, f.otherHR)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := f.svc.ListGoalReviews(ctx, f.manager)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.svc.ListGoalReviews(ctx, f.manager2)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListGoalReviews(ctx, f.employee)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestDeleteGoalReviewCreatorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)

	assert.True(t, apperror.Is(f.svc.DeleteGoalReview(ctx, f.otherHR, review.ID), apperror.CodeForbidden))
	require.NoError(t, f.svc.DeleteGoalReview(ctx, f.hr, review.ID))
	_, err := f.svc.GetGoalReview(ctx, f.hr, review.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestTaskReviewSnapshotsTaskDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.taskReview(t)
	require.NotNil(t, review.TaskDueDate)
	assert.True(t, review.TaskDueDate.Equal(taskDue))

	moved := taskDue.AddDate(0, 0, 7)
	task, err := f.store.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	task.DueDate = &moved
	_, err = f.store.UpdateTask(ctx, task)
	require.NoError(t, err)

	description := "updated"
	updated, err := f.svc.UpdateTaskReview(ctx, f.hr, review.ID, reviews.TaskReviewPatch{Description: &description})
	require.NoError(t, err)
	assert.True(t, updated.TaskDueDate.Equal(taskDue), "snapshot only refreshes when the task changes")

	other, err := f.store.CreateTask(ctx, tasks.Task{
		ProjectID: f.goalID, Title: "Second", Status: goals.StatusScheduled, Priority: tasks.PriorityLow,
		EmployeeID: f.employee.UserID, ManagerID: f.manager.UserID, DueDate: &moved,
	})
	require.NoError(t, err)
	updated, err = f.svc.UpdateTaskReview(ctx, f.hr, review.ID, reviews.TaskReviewPatch{TaskID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.TaskID)
	assert.True(t, updated.TaskDueDate.Equal(moved))
}

func TestTaskReviewReferenceErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := dueDay

	valid := reviews.TaskReviewInput{
		TaskID: f.taskID, DepartmentID: f.deptID, TeamID: f.teamID, ProjectID: f.goalID,
		EmployeeID: f.employee.UserID, DueDate: &due,
	}
	cases := []struct {
		name   string
		mutate func(*reviews.TaskReviewInput)
		entity string
	}{
		{"department", func(in *reviews.TaskReviewInput) { in.DepartmentID = "missing" }, "department"},
		{"team", func(in *reviews.TaskReviewInput) { in.TeamID = "missing" }, "team"},
		{"goal", func(in *reviews.TaskReviewInput) { in.ProjectID = "missing" }, "goal"},
		{"task", func(in *reviews.TaskReviewInput) { in.TaskID = "missing" }, "task"},
		{"employee", func(in *reviews.TaskReviewInput) { in.EmployeeID = "missing" }, "employee"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)
			_, err := f.svc.CreateTaskReview(ctx, f.hr, input)
			require.Error(t, err)
			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.CodeNotFound, appErr.Code)
			assert.Equal(t, tc.entity, appErr.Entity)
		})
	}
}

func ref(s string) *string { return &s }

func TestUpdateGoalReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)

	moved := dueDay.AddDate(0, 0, 14)
	updated, err := f.svc.UpdateGoalReview(ctx, f.otherHR, review.ID, reviews.GoalReviewPatch{
		ManagerID:   &f.manager2.UserID,
		TeamID:      &f.teamID,
		Description: ref("  Half-year  "),
		DueDate:     &moved,
	})
	require.NoError(t, err)
	assert.Equal(t, f.manager2.UserID, updated.ManagerID)
	assert.Equal(t, f.teamID, updated.TeamID)
	assert.Equal(t, "Half-year", updated.Description)
	assert.True(t, updated.DueDate.Equal(moved))
	assert.Equal(t, f.hr.UserID, updated.HRAdminID, "the creator is kept")

	cleared, err := f.svc.UpdateGoalReview(ctx, f.hr, review.ID, reviews.GoalReviewPatch{TeamID: ref("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.TeamID)
}

func TestUpdateGoalReviewRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)

	taken, err := f.store.CreateGoal(ctx, goals.Goal{Title: "Q2 launch", Status: goals.StatusScheduled, ManagerID: f.manager.UserID, TeamID: f.teamID})
	require.NoError(t, err)
	due := dueDay
	_, err = f.svc.CreateGoalReview(ctx, f.hr, reviews.GoalReviewInput{GoalID: taken.ID, ManagerID: f.manager.UserID, DueDate: &due})
	require.NoError(t, err)

	cases := []struct {
		name   string
		caller auth.UserContext
		patch  reviews.GoalReviewPatch
		code   apperror.Code
		entity string
	}{
		{"manager caller", f.manager, reviews.GoalReviewPatch{Description: ref("x")}, apperror.CodeForbidden, ""},
		{"employee caller", f.employee, reviews.GoalReviewPatch{Description: ref("x")}, apperror.CodeForbidden, ""},
		{"missing goal", f.hr, reviews.GoalReviewPatch{GoalID: ref("missing")}, apperror.CodeNotFound, "goal"},
		{"missing team", f.hr, reviews.GoalReviewPatch{TeamID: ref("missing")}, apperror.CodeNotFound, "team"},
		{"missing manager", f.hr, reviews.GoalReviewPatch{ManagerID: ref("missing")}, apperror.CodeNotFound, "manager"},
		{"manager with wrong role", f.hr, reviews.GoalReviewPatch{ManagerID: &f.employee.UserID}, apperror.CodeValidation, ""},
		{"goal already reviewed", f.hr, reviews.GoalReviewPatch{GoalID: &taken.ID}, apperror.CodeConflict, ""},
		{"cleared due date", f.hr, reviews.GoalReviewPatch{DueDate: &time.Time{}}, apperror.CodeValidation, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateGoalReview(ctx, tc.caller, review.ID, tc.patch)
			require.Error(t, err)
			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.entity != "" {
				assert.Equal(t, tc.entity, appErr.Entity)
			}
		})
	}

	stored, err := f.store.GetGoalReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, f.goalID, stored.GoalID, "rejected updates leave the review untouched")
	assert.Equal(t, "Quarterly", stored.Description)
}

func TestUpdateTaskReviewRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.taskReview(t)

	due := dueDay
	taken, err := f.store.CreateTask(ctx, tasks.Task{
		ProjectID: f.goalID, Title: "Review docs", Status: goals.StatusScheduled, Priority: tasks.PriorityHigh,
		EmployeeID: f.employee.UserID, ManagerID: f.manager.UserID,
	})
	require.NoError(t, err)
	_, err = f.svc.CreateTaskReview(ctx, f.hr, reviews.TaskReviewInput{
		TaskID: taken.ID, DepartmentID: f.deptID, TeamID: f.teamID, ProjectID: f.goalID,
		EmployeeID: f.employee.UserID, DueDate: &due,
	})
	require.NoError(t, err)

	cases := []struct {
		name   string
		caller auth.UserContext
		patch  reviews.TaskReviewPatch
		code   apperror.Code
		entity string
	}{
		{"manager caller", f.manager, reviews.TaskReviewPatch{Description: ref("x")}, apperror.CodeForbidden, ""},
		{"employee caller", f.employee, reviews.TaskReviewPatch{Description: ref("x")}, apperror.CodeForbidden, ""},
		{"missing department", f.hr, reviews.TaskReviewPatch{DepartmentID: ref("missing")}, apperror.CodeNotFound, "department"},
		{"missing team", f.hr, reviews.TaskReviewPatch{TeamID: ref("missing")}, apperror.CodeNotFound, "team"},
		{"missing project", f.hr, reviews.TaskReviewPatch{ProjectID: ref("missing")}, apperror.CodeNotFound, "goal"},
		{"missing task", f.hr, reviews.TaskReviewPatch{TaskID: ref("missing")}, apperror.CodeNotFound, "task"},
		{"missing employee", f.hr, reviews.TaskReviewPatch{EmployeeID: ref("missing")}, apperror.CodeNotFound, "employee"},
		{"employee with wrong role", f.hr, reviews.TaskReviewPatch{EmployeeID: &f.manager.UserID}, apperror.CodeValidation, ""},
		{"task already reviewed", f.hr, reviews.TaskReviewPatch{TaskID: &taken.ID}, apperror.CodeConflict, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateTaskReview(ctx, tc.caller, review.ID, tc.patch)
			require.Error(t, err)
			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.entity != "" {
				assert.Equal(t, tc.entity, appErr.Entity)
			}
		})
	}

	stored, err := f.store.GetTaskReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, f.taskID, stored.TaskID)
	assert.Equal(t, f.employee.UserID, stored.EmployeeID)
}

func TestTaskReviewSubmitNotifiesCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.taskReview(t)

	inbox := f.inbox(t, f.employee.UserID)
	require.Len(t, inbox, 1)
	assert.Equal(t, notifications.TypeTaskReviewCreated, inbox[0].Type)

	_, err := f.svc.SubmitTaskReview(ctx, f.manager, review.ID, "not assignee")
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	submitted, err := f.svc.SubmitTaskReview(ctx, f.employee, review.ID, "Finished the docs")
	require.NoError(t, err)
	assert.Equal(t, reviews.StatusCompleted, submitted.Status)
	assert.Equal(t, "Finished the docs", submitted.EmployeeReview)

	hrInbox := f.inbox(t, f.hr.UserID)
	require.Len(t, hrInbox, 1)
	assert.Equal(t, notifications.TypeTaskReviewSubmitted, hrInbox[0].Type)
	assert.Equal(t, notifications.EntityTaskReview, hrInbox[0].EntityType)

	done, err := f.svc.ListSubmittedTaskReviews(ctx, f.otherHR)
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func TestRemindersAreSentOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.goalReview(t)
	f.taskReview(t)

	first, err := f.svc.SweepReminders(ctx, f.hr, dueDay.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-31", first.Day)
	assert.Equal(t, 1, first.GoalReviews)
	assert.Equal(t, 1, first.TaskReviews)
	assert.Equal(t, 2, first.Sent)
	assert.Zero(t, first.Skipped)

	second, err := f.svc.SendDueReviewReminders(ctx, dueDay)
	require.NoError(t, err)
	assert.Zero(t, second.Sent)
	assert.Equal(t, 2, second.Skipped)

	reminders := 0
	for _, n := range f.inbox(t, f.manager.UserID) {
		if n.Type == notifications.TypeReminder {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders)

	other, err := f.svc.SendDueReviewReminders(ctx, dueDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, other.GoalReviews+other.TaskReviews)

	_, err = f.svc.SweepReminders(ctx, f.manager, dueDay)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestRemindersSkipCompletedReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.goalReview(t)
	_, err := f.svc.SubmitGoalReview(ctx, f.manager, review.ID, "done")
	require.NoError(t, err)

	result, err := f.svc.SendDueReviewReminders(ctx, dueDay)
	require.NoError(t, err)
	assert.Zero(t, result.GoalReviews)
	assert.Zero(t, result.Sent)
}
