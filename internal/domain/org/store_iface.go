package org

import "context"

type StoreAPI interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UserByLogin(ctx context.Context, login string) (User, error)
	ListUsers(ctx context.Context, role string) ([]User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateDepartment(ctx context.Context, dept Department) (Department, error)
	GetDepartment(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	UpdateDepartment(ctx context.Context, dept Department) (Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	CreateTeam(ctx context.Context, team Team) (Team, error)
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeams(ctx context.Context, memberID string) ([]Team, error)
	UpdateTeam(ctx context.Context, team Team) (Team, error)
	DeleteTeam(ctx context.Context, id string) error
}
