package readmodel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/directory"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/platform/memstore"
)

func TestProjectionsResolveNames(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	hr, err := store.CreateUser(ctx, org.User{Username: "hana", Email: "hana@example.com", Role: auth.RoleHR})
	require.NoError(t, err)
	mgr, err := store.CreateUser(ctx, org.User{Username: "milo", Email: "milo@example.com", Role: auth.RoleManager})
	require.NoError(t, err)
	emp, err := store.CreateUser(ctx, org.User{Username: "eve", Email: "eve@example.com", Role: auth.RoleEmployee})
	require.NoError(t, err)
	dept, err := store.CreateDepartment(ctx, org.Department{Name: "Engineering", CreatedBy: hr.ID})
	require.NoError(t, err)
	team, err := store.CreateTeam(ctx, org.Team{Name: "Core", DepartmentID: dept.ID, CreatedBy: hr.ID})
	require.NoError(t, err)
	goal, err := store.CreateGoal(ctx, goals.Goal{Title: "Launch", Status: goals.StatusScheduled, ManagerID: mgr.ID, TeamID: team.ID})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, tasks.Task{
		ProjectID: goal.ID, Title: "Docs", Status: goals.StatusScheduled, Priority: tasks.PriorityHigh,
		EmployeeID: emp.ID, ManagerID: mgr.ID,
	})
	require.NoError(t, err)

	projector := readmodel.New(directory.New(store, store, store))

	goalViews, err := projector.GoalReviews(ctx, []reviews.GoalReview{{
		ID: "gr-1", GoalID: goal.ID, ManagerID: mgr.ID, HRAdminID: hr.ID, TeamID: team.ID, DueDate: time.Now(),
	}})
	require.NoError(t, err)
	require.Len(t, goalViews, 1)
	assert.Equal(t, readmodel.Ref{ID: goal.ID, Name: "Launch"}, goalViews[0].Goal)
	assert.Equal(t, "milo", goalViews[0].Manager.Name)
	require.NotNil(t, goalViews[0].Team)
	assert.Equal(t, "Core", goalViews[0].Team.Name)

	taskViews, err := projector.TaskReviews(ctx, []reviews.TaskReview{{
		ID: "tr-1", TaskID: task.ID, DepartmentID: dept.ID, TeamID: team.ID, ProjectID: goal.ID,
		EmployeeID: emp.ID, HRAdminID: hr.ID,
	}})
	require.NoError(t, err)
	assert.Equal(t, "Docs", taskViews[0].Task.Name)
	assert.Equal(t, "Engineering", taskViews[0].Department.Name)
	assert.Equal(t, "Launch", taskViews[0].Project.Name)
	assert.Equal(t, "eve", taskViews[0].Employee.Name)
	assert.Equal(t, "hana", taskViews[0].HRAdmin.Name)

	listed, err := projector.Tasks(ctx, []tasks.Task{task})
	require.NoError(t, err)
	assert.Equal(t, "milo", listed[0].Manager.Name)
}

func TestMissingReferenceLeavesNameEmpty(t *testing.T) {
	projector := readmodel.New(directory.New(memstore.New(), memstore.New(), memstore.New()))
	views, err := projector.GoalReviews(context.Background(), []reviews.GoalReview{{ID: "gr-1", GoalID: "gone", ManagerID: "gone"}})
	require.NoError(t, err)
	assert.Equal(t, readmodel.Ref{ID: "gone"}, views[0].Goal)
	assert.Nil(t, views[0].Team)
}
