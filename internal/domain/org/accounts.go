package org

import (
	"context"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

// Accounts exposes the bootstrap operations used by db.Seed.
type Accounts struct {
	Store StoreAPI
}

func (a Accounts) AdminExists(ctx context.Context, username, email string) (bool, error) {
	for _, login := range []string{username, email} {
		_, err := a.Store.UserByLogin(ctx, login)
		if err == nil {
			return true, nil
		}
		if !apperror.IsNotFound(err) {
			return false, err
		}
	}
	return false, nil
}

func (a Accounts) CreateAdmin(ctx context.Context, username, email, passwordHash string) error {
	_, err := a.Store.CreateUser(ctx, User{
		Username:     username,
		Email:        email,
		Role:         auth.RoleHR,
		PasswordHash: passwordHash,
	})
	return err
}
