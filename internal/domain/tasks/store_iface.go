package tasks

import (
	"context"

	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
)

type StoreAPI interface {
	CreateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type Directory interface {
	User(ctx context.Context, id string) (org.User, error)
	Goal(ctx context.Context, id string) (goals.Goal, error)
}
