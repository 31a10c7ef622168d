package auth

import (
	"context"
	"errors"
	"time"

	"perfcycle/internal/apperror"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Credentials struct {
	UserID       string
	Username     string
	Email        string
	Role         string
	PasswordHash string
}

type CredentialStore interface {
	CredentialsByLogin(ctx context.Context, login string) (Credentials, error)
}

// Service issues bearer tokens for directory users.
type Service struct {
	store  CredentialStore
	secret string
	ttl    time.Duration
}

func NewService(store CredentialStore, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

// Login accepts either an email or a username.
func (s *Service) Login(ctx context.Context, login, password string) (string, Credentials, error) {
	creds, err := s.store.CredentialsByLogin(ctx, login)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", Credentials{}, ErrInvalidCredentials
		}
		return "", Credentials{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return "", Credentials{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, Claims{UserID: creds.UserID, RoleName: creds.Role}, s.ttl)
	if err != nil {
		return "", Credentials{}, err
	}
	return token, creds, nil
}
