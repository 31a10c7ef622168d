package org

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// User, Team and Department are unauthenticated existence lookups used by
// the workflow services.

func (s *Service) User(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, apperror.NotFound("user")
	}
	return s.store.GetUser(ctx, id)
}

func (s *Service) Team(ctx context.Context, id string) (Team, error) {
	if strings.TrimSpace(id) == "" {
		return Team{}, apperror.NotFound("team")
	}
	return s.store.GetTeam(ctx, id)
}

func (s *Service) Department(ctx context.Context, id string) (Department, error) {
	if strings.TrimSpace(id) == "" {
		return Department{}, apperror.NotFound("department")
	}
	return s.store.GetDepartment(ctx, id)
}

func (s *Service) CredentialsByLogin(ctx context.Context, login string) (auth.Credentials, error) {
	user, err := s.store.UserByLogin(ctx, strings.ToLower(strings.TrimSpace(login)))
	if err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
	}, nil
}

func (s *Service) CreateUser(ctx context.Context, caller auth.UserContext, input UserInput) (User, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return User{}, err
	}
	user := User{
		Username: strings.ToLower(strings.TrimSpace(input.Username)),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Role:     strings.ToLower(strings.TrimSpace(input.Role)),
	}
	if err := validateUser(user); err != nil {
		return User{}, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return User{}, apperror.Validation(err.Error())
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.store.CreateUser(ctx, user)
}

func (s *Service) GetUser(ctx context.Context, caller auth.UserContext, id string) (User, error) {
	if caller.UserID == "" {
		return User{}, apperror.ErrUnauthenticated
	}
	return s.User(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, caller auth.UserContext, role string) ([]User, error) {
	if caller.UserID == "" {
		return nil, apperror.ErrUnauthenticated
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && !auth.ValidRole(role) {
		return nil, apperror.Validationf("unknown role %q", role)
	}
	return s.store.ListUsers(ctx, role)
}

func (s *Service) UpdateUser(ctx context.Context, caller auth.UserContext, id string, patch UserPatch) (User, error) {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return User{}, err
	}
	user, err := s.User(ctx, id)
	if err != nil {
		return User{}, err
	}
	if patch.Username != nil {
		user.Username = strings.ToLower(strings.TrimSpace(*patch.Username))
	}
	if patch.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Role != nil {
		user.Role = strings.ToLower(strings.TrimSpace(*patch.Role))
	}
	if err := validateUser(user); err != nil {
		return User{}, err
	}
	if patch.Password != nil {
		if err := auth.ValidatePassword(*patch.Password); err != nil {
			return User{}, apperror.Validation(err.Error())
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	return s.store.UpdateUser(ctx, user)
}

func (s *Service) DeleteUser(ctx context.Context, caller auth.UserContext, id string) error {
	if err := auth.Authorize(auth.ActionDirectoryWrite, caller, auth.Resource{}); err != nil {
		return err
	}
	if id == caller.UserID {
		return apperror.Validation("cannot delete your own account")
	}
	if _, err := s.User(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, id)
}

func validateUser(user User) error {
	if user.Username == "" {
		return apperror.Validation("username is required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil || !strings.Contains(user.Email, "@") {
		return apperror.Validation("a valid email address is required")
	}
	if !auth.ValidRole(user.Role) {
		return apperror.Validation("role must be one of hr, manager, employee")
	}
	return nil
}

// TeamsForMember lists the teams userID belongs to without a caller check.
func (s *Service) TeamsForMember(ctx context.Context, userID string) ([]Team, error) {
	return s.store.ListTeams(ctx, userID)
}
