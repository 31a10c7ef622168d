package db

import (
	"context"
	"strings"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/platform/config"
)

// AdminAccounts is the slice of the user directory the seed needs. Both the
// postgres and the in-memory stores provide it through org.Accounts.
type AdminAccounts interface {
	AdminExists(ctx context.Context, username, email string) (bool, error)
	CreateAdmin(ctx context.Context, username, email, passwordHash string) error
}

// Seed ensures the bootstrap HR admin exists. It reports whether a user was
// created; an existing account with the same username or email is left alone.
func Seed(ctx context.Context, accounts AdminAccounts, cfg config.Config) (bool, error) {
	return ensureAdminUser(ctx, accounts, cfg.SeedAdminUsername, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdminUser(ctx context.Context, accounts AdminAccounts, username, email, password string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}

	exists, err := accounts.AdminExists(ctx, username, email)
	if err != nil || exists {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := accounts.CreateAdmin(ctx, username, email, hash); err != nil {
		return false, err
	}
	return true, nil
}
