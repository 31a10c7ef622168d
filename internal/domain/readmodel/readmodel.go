// Package readmodel expands workflow records with the display names of the
// records they reference. Projections are read-only and never fail because
// a reference has since been removed; the name is left empty instead.
package readmodel

import (
	"context"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
)

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type GoalReviewView struct {
	reviews.GoalReview
	Goal    Ref  `json:"goal"`
	Manager Ref  `json:"manager"`
	HRAdmin Ref  `json:"hrAdmin"`
	Team    *Ref `json:"team,omitempty"`
}

type TaskReviewView struct {
	reviews.TaskReview
	Task       Ref `json:"task"`
	Department Ref `json:"department"`
	Team       Ref `json:"team"`
	Project    Ref `json:"project"`
	Employee   Ref `json:"employee"`
	HRAdmin    Ref `json:"hrAdmin"`
}

type TaskView struct {
	tasks.Task
	Project  Ref `json:"project"`
	Employee Ref `json:"employee"`
	Manager  Ref `json:"manager"`
}

type Directory interface {
	User(ctx context.Context, id string) (org.User, error)
	Department(ctx context.Context, id string) (org.Department, error)
	Team(ctx context.Context, id string) (org.Team, error)
	Goal(ctx context.Context, id string) (goals.Goal, error)
	Task(ctx context.Context, id string) (tasks.Task, error)
}

type Projector struct {
	dir Directory
}

func New(dir Directory) *Projector {
	return &Projector{dir: dir}
}

func (p *Projector) GoalReviews(ctx context.Context, items []reviews.GoalReview) ([]GoalReviewView, error) {
	r := p.resolver()
	out := make([]GoalReviewView, 0, len(items))
	for _, item := range items {
		view := GoalReviewView{GoalReview: item}
		var err error
		if view.Goal, err = r.goal(ctx, item.GoalID); err != nil {
			return nil, err
		}
		if view.Manager, err = r.user(ctx, item.ManagerID); err != nil {
			return nil, err
		}
		if view.HRAdmin, err = r.user(ctx, item.HRAdminID); err != nil {
			return nil, err
		}
		if item.TeamID != "" {
			team, err := r.team(ctx, item.TeamID)
			if err != nil {
				return nil, err
			}
			view.Team = &team
		}
		out = append(out, view)
	}
	return out, nil
}

func (p *Projector) TaskReviews(ctx context.Context, items []reviews.TaskReview) ([]TaskReviewView, error) {
	r := p.resolver()
	out := make([]TaskReviewView, 0, len(items))
	for _, item := range items {
		view := TaskReviewView{TaskReview: item}
		var err error
		if view.Task, err = r.task(ctx, item.TaskID); err != nil {
			return nil, err
		}
		if view.Department, err = r.department(ctx, item.DepartmentID); err != nil {
			return nil, err
		}
		if view.Team, err = r.team(ctx, item.TeamID); err != nil {
			return nil, err
		}
		if view.Project, err = r.goal(ctx, item.ProjectID); err != nil {
			return nil, err
		}
		if view.Employee, err = r.user(ctx, item.EmployeeID); err != nil {
			return nil, err
		}
		if view.HRAdmin, err = r.user(ctx, item.HRAdminID); err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (p *Projector) Tasks(ctx context.Context, items []tasks.Task) ([]TaskView, error) {
	r := p.resolver()
	out := make([]TaskView, 0, len(items))
	for _, item := range items {
		view := TaskView{Task: item}
		var err error
		if view.Project, err = r.goal(ctx, item.ProjectID); err != nil {
			return nil, err
		}
		if view.Employee, err = r.user(ctx, item.EmployeeID); err != nil {
			return nil, err
		}
		if view.Manager, err = r.user(ctx, item.ManagerID); err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// resolver memoises names for the lifetime of one projection call.
type resolver struct {
	dir   Directory
	names map[string]string
}

func (p *Projector) resolver() *resolver {
	return &resolver{dir: p.dir, names: map[string]string{}}
}

func (r *resolver) lookup(ctx context.Context, kind, id string, load func(context.Context, string) (string, error)) (Ref, error) {
	if id == "" {
		return Ref{}, nil
	}
	key := kind + ":" + id
	if name, ok := r.names[key]; ok {
		return Ref{ID: id, Name: name}, nil
	}
	name, err := load(ctx, id)
	if err != nil && !apperror.IsNotFound(err) {
		return Ref{}, err
	}
	r.names[key] = name
	return Ref{ID: id, Name: name}, nil
}

func (r *resolver) user(ctx context.Context, id string) (Ref, error) {
	return r.lookup(ctx, "user", id, func(ctx context.Context, id string) (string, error) {
		u, err := r.dir.User(ctx, id)
		return u.Username, err
	})
}

func (r *resolver) department(ctx context.Context, id string) (Ref, error) {
	return r.lookup(ctx, "department", id, func(ctx context.Context, id string) (string, error) {
		d, err := r.dir.Department(ctx, id)
		return d.Name, err
	})
}

func (r *resolver) team(ctx context.Context, id string) (Ref, error) {
	return r.lookup(ctx, "team", id, func(ctx context.Context, id string) (string, error) {
		t, err := r.dir.Team(ctx, id)
		return t.Name, err
	})
}

func (r *resolver) goal(ctx context.Context, id string) (Ref, error) {
	return r.lookup(ctx, "goal", id, func(ctx context.Context, id string) (string, error) {
		g, err := r.dir.Goal(ctx, id)
		return g.Title, err
	})
}

func (r *resolver) task(ctx context.Context, id string) (Ref, error) {
	return r.lookup(ctx, "task", id, func(ctx context.Context, id string) (string, error) {
		t, err := r.dir.Task(ctx, id)
		return t.Title, err
	})
}
