package goals

import (
	"context"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

type Service struct {
	store StoreAPI
	dir   Directory
}

func NewService(store StoreAPI, dir Directory) *Service {
	return &Service{store: store, dir: dir}
}

// Goal looks a goal up by id without a visibility check.
func (s *Service) Goal(ctx context.Context, id string) (Goal, error) {
	if strings.TrimSpace(id) == "" {
		return Goal{}, apperror.NotFound("goal")
	}
	return s.store.GetGoal(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller auth.UserContext, input GoalInput) (Goal, error) {
	if err := auth.Authorize(auth.ActionGoalCreate, caller, auth.Resource{}); err != nil {
		return Goal{}, err
	}
	goal := Goal{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		StartDate:    input.StartDate,
		DueDate:      input.DueDate,
		Status:       StatusScheduled,
		TeamID:       strings.TrimSpace(input.TeamID),
		DepartmentID: strings.TrimSpace(input.DepartmentID),
	}
	if caller.IsManager() {
		goal.ManagerID = caller.UserID
	} else {
		goal.ManagerID = strings.TrimSpace(input.ManagerID)
		goal.HRID = caller.UserID
		if goal.ManagerID == "" {
			return Goal{}, apperror.Validation("managerId is required")
		}
	}
	if goal.Title == "" {
		return Goal{}, apperror.Validation("title is required")
	}
	if goal.TeamID == "" {
		return Goal{}, apperror.Validation("teamId is required")
	}
	if err := checkDates(goal); err != nil {
		return Goal{}, err
	}
	if err := s.checkManager(ctx, goal.ManagerID); err != nil {
		return Goal{}, err
	}
	if _, err := s.dir.Team(ctx, goal.TeamID); err != nil {
		return Goal{}, err
	}
	if goal.DepartmentID != "" {
		if _, err := s.dir.Department(ctx, goal.DepartmentID); err != nil {
			return Goal{}, err
		}
	}
	return s.store.CreateGoal(ctx, goal)
}

func (s *Service) List(ctx context.Context, caller auth.UserContext) ([]Goal, error) {
	switch {
	case caller.UserID == "":
		return nil, apperror.ErrUnauthenticated
	case caller.IsHR():
		return s.store.ListGoals(ctx, Filter{})
	case caller.IsManager():
		return s.store.ListGoals(ctx, Filter{ManagerID: caller.UserID})
	}
	teams, err := s.dir.TeamsForMember(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []Goal{}, nil
	}
	ids := make([]string, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	return s.store.ListGoals(ctx, Filter{TeamIDs: ids})
}

func (s *Service) Get(ctx context.Context, caller auth.UserContext, id string) (Goal, error) {
	if caller.UserID == "" {
		return Goal{}, apperror.ErrUnauthenticated
	}
	goal, err := s.Goal(ctx, id)
	if err != nil {
		return Goal{}, err
	}
	res, err := s.resource(ctx, goal, caller)
	if err != nil {
		return Goal{}, err
	}
	if err := auth.Authorize(auth.ActionGoalRead, caller, res); err != nil {
		return Goal{}, err
	}
	return goal, nil
}

func (s *Service) Update(ctx context.Context, caller auth.UserContext, id string, patch GoalPatch) (Goal, error) {
	if caller.UserID == "" {
		return Goal{}, apperror.ErrUnauthenticated
	}
	goal, err := s.Goal(ctx, id)
	if err != nil {
		return Goal{}, err
	}
	res := auth.Resource{OwnerID: goal.ManagerID}
	action := auth.ActionGoalUpdate
	if patch.onlyDepartment() {
		action = auth.ActionGoalAssignDepartment
	}
	if err := auth.Authorize(action, caller, res); err != nil {
		return Goal{}, err
	}

	if patch.Title != nil {
		goal.Title = strings.TrimSpace(*patch.Title)
		if goal.Title == "" {
			return Goal{}, apperror.Validation("title is required")
		}
	}
	if patch.Description != nil {
		goal.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		goal.StartDate = patch.StartDate
	}
	if patch.DueDate != nil {
		goal.DueDate = patch.DueDate
	}
	if err := checkDates(goal); err != nil {
		return Goal{}, err
	}
	if patch.Status != nil {
		next := strings.ToLower(strings.TrimSpace(*patch.Status))
		if err := CheckTransition(goal.Status, next); err != nil {
			return Goal{}, err
		}
		goal.Status = next
	}
	if patch.TeamID != nil {
		teamID := strings.TrimSpace(*patch.TeamID)
		if teamID == "" {
			return Goal{}, apperror.Validation("teamId cannot be empty")
		}
		if teamID != goal.TeamID {
			if _, err := s.dir.Team(ctx, teamID); err != nil {
				return Goal{}, err
			}
			goal.TeamID = teamID
		}
	}
	if patch.DepartmentID != nil {
		deptID := strings.TrimSpace(*patch.DepartmentID)
		if deptID != "" && deptID != goal.DepartmentID {
			if _, err := s.dir.Department(ctx, deptID); err != nil {
				return Goal{}, err
			}
		}
		goal.DepartmentID = deptID
	}
	return s.store.UpdateGoal(ctx, goal)
}

func (s *Service) Delete(ctx context.Context, caller auth.UserContext, id string) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	goal, err := s.Goal(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.ActionGoalDelete, caller, auth.Resource{OwnerID: goal.ManagerID}); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, id)
}

func (s *Service) checkManager(ctx context.Context, id string) error {
	user, err := s.dir.User(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NotFound("manager")
		}
		return err
	}
	if user.Role != auth.RoleManager {
		return apperror.Validation("managerId must reference a user with the manager role")
	}
	return nil
}

// resource only loads team members for callers who are not already
// allowed through role or ownership.
func (s *Service) resource(ctx context.Context, goal Goal, caller auth.UserContext) (auth.Resource, error) {
	res := auth.Resource{OwnerID: goal.ManagerID}
	if caller.IsHR() || caller.UserID == goal.ManagerID {
		return res, nil
	}
	team, err := s.dir.Team(ctx, goal.TeamID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return res, nil
		}
		return auth.Resource{}, err
	}
	res.MemberIDs = team.Members
	return res, nil
}

func checkDates(goal Goal) error {
	if goal.StartDate != nil && goal.DueDate != nil && goal.DueDate.Before(*goal.StartDate) {
		return apperror.Validation("dueDate must be on or after startDate")
	}
	return nil
}
