package org

import (
	"context"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

func (s *Service) CreateDepartment(ctx context.Context, caller auth.UserContext, input DepartmentInput) (Department, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return Department{}, err
	}
	dept := Department{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   caller.UserID,
	}
	if dept.Name == "" {
		return Department{}, apperror.Validation("department name is required")
	}
	return s.store.CreateDepartment(ctx, dept)
}

func (s *Service) ListDepartments(ctx context.Context, caller auth.UserContext) ([]Department, error) {
	if caller.UserID == "" {
		return nil, apperror.ErrUnauthenticated
	}
	return s.store.ListDepartments(ctx)
}

func (s *Service) GetDepartment(ctx context.Context, caller auth.UserContext, id string) (Department, error) {
	if caller.UserID == "" {
		return Department{}, apperror.ErrUnauthenticated
	}
	return s.Department(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, caller auth.UserContext, id string, patch DepartmentPatch) (Department, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return Department{}, err
	}
	dept, err := s.Department(ctx, id)
	if err != nil {
		return Department{}, err
	}
	if patch.Name != nil {
		dept.Name = strings.TrimSpace(*patch.Name)
		if dept.Name == "" {
			return Department{}, apperror.Validation("department name is required")
		}
	}
	if patch.Description != nil {
		dept.Description = strings.TrimSpace(*patch.Description)
	}
	return s.store.UpdateDepartment(ctx, dept)
}

func (s *Service) DeleteDepartment(ctx context.Context, caller auth.UserContext, id string) error {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return err
	}
	if _, err := s.Department(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteDepartment(ctx, id)
}

func (s *Service) CreateTeam(ctx context.Context, caller auth.UserContext, input TeamInput) (Team, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return Team{}, err
	}
	team := Team{
		Name:         strings.TrimSpace(input.Name),
		DepartmentID: strings.TrimSpace(input.DepartmentID),
		CreatedBy:    caller.UserID,
	}
	if team.Name == "" {
		return Team{}, apperror.Validation("team name is required")
	}
	if team.DepartmentID != "" {
		if _, err := s.Department(ctx, team.DepartmentID); err != nil {
			return Team{}, err
		}
	}
	members, err := s.resolveMembers(ctx, input.Members)
	if err != nil {
		return Team{}, err
	}
	team.Members = members
	return s.store.CreateTeam(ctx, team)
}

// ListTeams returns every team to HR and managers; employees only see the
// teams they belong to.
func (s *Service) ListTeams(ctx context.Context, caller auth.UserContext) ([]Team, error) {
	if caller.UserID == "" {
		return nil, apperror.ErrUnauthenticated
	}
	if caller.IsEmployee() {
		return s.store.ListTeams(ctx, caller.UserID)
	}
	return s.store.ListTeams(ctx, "")
}

func (s *Service) ListTeamsByMember(ctx context.Context, caller auth.UserContext, memberID string) ([]Team, error) {
	if caller.UserID == "" {
		return nil, apperror.ErrUnauthenticated
	}
	if caller.IsEmployee() && memberID != caller.UserID {
		return nil, apperror.Forbidden("employees can only list their own teams")
	}
	return s.store.ListTeams(ctx, memberID)
}

func (s *Service) GetTeam(ctx context.Context, caller auth.UserContext, id string) (Team, error) {
	if caller.UserID == "" {
		return Team{}, apperror.ErrUnauthenticated
	}
	return s.Team(ctx, id)
}

func (s *Service) UpdateTeam(ctx context.Context, caller auth.UserContext, id string, patch TeamPatch) (Team, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return Team{}, err
	}
	team, err := s.Team(ctx, id)
	if err != nil {
		return Team{}, err
	}
	if patch.Name != nil {
		team.Name = strings.TrimSpace(*patch.Name)
		if team.Name == "" {
			return Team{}, apperror.Validation("team name is required")
		}
	}
	if patch.DepartmentID != nil {
		deptID := strings.TrimSpace(*patch.DepartmentID)
		if deptID != "" && deptID != team.DepartmentID {
			if _, err := s.Department(ctx, deptID); err != nil {
				return Team{}, err
			}
		}
		team.DepartmentID = deptID
	}
	if patch.Members != nil {
		members, err := s.resolveMembers(ctx, *patch.Members)
		if err != nil {
			return Team{}, err
		}
		team.Members = members
	}
	return s.store.UpdateTeam(ctx, team)
}

func (s *Service) DeleteTeam(ctx context.Context, caller auth.UserContext, id string) error {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return err
	}
	if _, err := s.Team(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteTeam(ctx, id)
}

// resolveMembers drops duplicates and checks every member exists now. The
// roster is not re-validated later.
func (s *Service) resolveMembers(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, err := s.User(ctx, id); err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NotFound("team member " + id)
			}
			return nil, err
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
