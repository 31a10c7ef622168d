package tasks

import (
	"context"
	"slices"
	"strings"
	"time"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/goals"
)

type Service struct {
	store StoreAPI
	dir   Directory
	now   func() time.Time
}

func NewService(store StoreAPI, dir Directory) *Service {
	return &Service{store: store, dir: dir, now: time.Now}
}

// WithClock replaces the clock used to stamp completedAt.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Task(ctx context.Context, id string) (Task, error) {
	if strings.TrimSpace(id) == "" {
		return Task{}, apperror.NotFound("task")
	}
	return s.store.GetTask(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller auth.UserContext, input TaskInput) (Task, error) {
	if err := auth.Authorize(auth.ActionTaskCreate, caller, auth.Resource{}); err != nil {
		return Task{}, err
	}
	task := Task{
		ProjectID:   strings.TrimSpace(input.ProjectID),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		Status:      goals.StatusScheduled,
		Priority:    strings.ToLower(strings.TrimSpace(input.Priority)),
		EmployeeID:  strings.TrimSpace(input.EmployeeID),
		ManagerID:   caller.UserID,
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if err := validateTask(task); err != nil {
		return Task{}, err
	}
	if err := s.checkProject(ctx, task.ProjectID); err != nil {
		return Task{}, err
	}
	if err := s.checkEmployee(ctx, task.EmployeeID); err != nil {
		return Task{}, err
	}
	return s.store.CreateTask(ctx, task)
}

func (s *Service) List(ctx context.Context, caller auth.UserContext, projectID string) ([]Task, error) {
	filter := Filter{ProjectID: strings.TrimSpace(projectID)}
	switch {
	case caller.UserID == "":
		return nil, apperror.ErrUnauthenticated
	case caller.IsManager():
		filter.ManagerID = caller.UserID
	case caller.IsEmployee():
		filter.EmployeeID = caller.UserID
	}
	return s.store.ListTasks(ctx, filter)
}

func (s *Service) Get(ctx context.Context, caller auth.UserContext, id string) (Task, error) {
	if caller.UserID == "" {
		return Task{}, apperror.ErrUnauthenticated
	}
	task, err := s.Task(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := auth.Authorize(auth.ActionTaskRead, caller, resourceOf(task)); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Update applies patch. The owning manager may change anything; the
// assigned employee may only move the status forward.
func (s *Service) Update(ctx context.Context, caller auth.UserContext, id string, patch TaskPatch) (Task, error) {
	if caller.UserID == "" {
		return Task{}, apperror.ErrUnauthenticated
	}
	task, err := s.Task(ctx, id)
	if err != nil {
		return Task{}, err
	}
	action := auth.ActionTaskUpdate
	if patch.statusOnly() {
		action = auth.ActionTaskUpdateStatus
	}
	if err := auth.Authorize(action, caller, resourceOf(task)); err != nil {
		return Task{}, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		task.StartDate = patch.StartDate
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = strings.ToLower(strings.TrimSpace(*patch.Priority))
	}
	if patch.ProjectID != nil {
		projectID := strings.TrimSpace(*patch.ProjectID)
		if projectID != task.ProjectID {
			if err := s.checkProject(ctx, projectID); err != nil {
				return Task{}, err
			}
			task.ProjectID = projectID
		}
	}
	if patch.EmployeeID != nil {
		employeeID := strings.TrimSpace(*patch.EmployeeID)
		if employeeID != task.EmployeeID {
			if err := s.checkEmployee(ctx, employeeID); err != nil {
				return Task{}, err
			}
			task.EmployeeID = employeeID
		}
	}
	if err := validateTask(task); err != nil {
		return Task{}, err
	}
	if patch.Status != nil {
		next := strings.ToLower(strings.TrimSpace(*patch.Status))
		if err := goals.CheckTransition(task.Status, next); err != nil {
			return Task{}, err
		}
		if next == goals.StatusCompleted && task.Status != goals.StatusCompleted && task.CompletedAt == nil {
			completedAt := s.now().UTC()
			task.CompletedAt = &completedAt
		}
		task.Status = next
	}
	return s.store.UpdateTask(ctx, task)
}

func (s *Service) Delete(ctx context.Context, caller auth.UserContext, id string) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	task, err := s.Task(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionTaskDelete, caller, resourceOf(task)); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, id)
}

func (s *Service) checkProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return apperror.Validation("projectId is required")
	}
	if _, err := s.dir.Goal(ctx, projectID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.Validation("projectId must reference an existing goal")
		}
		return err
	}
	return nil
}

func (s *Service) checkEmployee(ctx context.Context, employeeID string) error {
	if employeeID == "" {
		return apperror.Validation("employeeId is required")
	}
	user, err := s.dir.User(ctx, employeeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.Validation("employeeId must reference an existing user")
		}
		return err
	}
	if user.Role != auth.RoleEmployee {
		return apperror.Validation("employeeId must reference a user with the employee role")
	}
	return nil
}

func validateTask(task Task) error {
	if task.Title == "" {
		return apperror.Validation("title is required")
	}
	if !slices.Contains(Priorities, task.Priority) {
		return apperror.Validation("priority must be one of low, medium, high")
	}
	if task.StartDate != nil && task.DueDate != nil && task.DueDate.Before(*task.StartDate) {
		return apperror.Validation("dueDate must be on or after startDate")
	}
	return nil
}

func resourceOf(task Task) auth.Resource {
	return auth.Resource{OwnerID: task.ManagerID, AssigneeID: task.EmployeeID}
}
