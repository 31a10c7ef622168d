package goals

import (
	"context"

	"perfcycle/internal/domain/org"
)

type StoreAPI interface {
	CreateGoal(ctx context.Context, goal Goal) (Goal, error)
	GetGoal(ctx context.Context, id string) (Goal, error)
	ListGoals(ctx context.Context, filter Filter) ([]Goal, error)
	UpdateGoal(ctx context.Context, goal Goal) (Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// Directory resolves the org records a goal points at.
type Directory interface {
	User(ctx context.Context, id string) (org.User, error)
	Team(ctx context.Context, id string) (org.Team, error)
	Department(ctx context.Context, id string) (org.Department, error)
	TeamsForMember(ctx context.Context, userID string) ([]org.Team, error)
}
