package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perfcycle/internal/apperror"
)

func TestMapError(t *testing.T) {
	if err := MapError(nil, "goal"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if got := apperror.GetCode(MapError(pgx.ErrNoRows, "goal")); got != apperror.CodeNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if got := apperror.GetCode(MapError(unique, "goal review")); got != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %s", got)
	}
	fk := &pgconn.PgError{Code: "23503"}
	if got := apperror.GetCode(MapError(fk, "task")); got != apperror.CodeValidation {
		t.Fatalf("expected validation on write, got %s", got)
	}
	if got := apperror.GetCode(MapDeleteError(fk, "team")); got != apperror.CodeConflict {
		t.Fatalf("expected conflict on delete, got %s", got)
	}
	malformed := &pgconn.PgError{Code: "22P02"}
	if got := apperror.GetCode(MapError(malformed, "goal")); got != apperror.CodeNotFound {
		t.Fatalf("expected not_found for malformed id, got %s", got)
	}
	other := errors.New("connection reset")
	if !errors.Is(MapError(other, "goal"), other) {
		t.Fatal("expected unknown errors to pass through")
	}
	if !IsUniqueViolation(unique) {
		t.Fatal("expected unique violation detection")
	}
}
