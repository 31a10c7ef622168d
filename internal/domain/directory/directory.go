// Package directory resolves references between workflow records. Every
// lookup maps a blank id or a missing row to a not-found error naming the
// entity, so callers can report which reference was wrong.
package directory

import (
	"context"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/tasks"
)

type Directory struct {
	org   org.StoreAPI
	goals goals.StoreAPI
	tasks tasks.StoreAPI
}

func New(orgStore org.StoreAPI, goalStore goals.StoreAPI, taskStore tasks.StoreAPI) *Directory {
	return &Directory{org: orgStore, goals: goalStore, tasks: taskStore}
}

func (d *Directory) User(ctx context.Context, id string) (org.User, error) {
	if blank(id) {
		return org.User{}, apperror.NotFound("user")
	}
	return d.org.GetUser(ctx, id)
}

func (d *Directory) Department(ctx context.Context, id string) (org.Department, error) {
	if blank(id) {
		return org.Department{}, apperror.NotFound("department")
	}
	return d.org.GetDepartment(ctx, id)
}

func (d *Directory) Team(ctx context.Context, id string) (org.Team, error) {
	if blank(id) {
		return org.Team{}, apperror.NotFound("team")
	}
	return d.org.GetTeam(ctx, id)
}

func (d *Directory) TeamsForMember(ctx context.Context, userID string) ([]org.Team, error) {
	if blank(userID) {
		return []org.Team{}, nil
	}
	return d.org.ListTeams(ctx, userID)
}

func (d *Directory) Goal(ctx context.Context, id string) (goals.Goal, error) {
	if blank(id) {
		return goals.Goal{}, apperror.NotFound("goal")
	}
	return d.goals.GetGoal(ctx, id)
}

func (d *Directory) Task(ctx context.Context, id string) (tasks.Task, error) {
	if blank(id) {
		return tasks.Task{}, apperror.NotFound("task")
	}
	return d.tasks.GetTask(ctx, id)
}

func blank(id string) bool {
	return strings.TrimSpace(id) == ""
}
