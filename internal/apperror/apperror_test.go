package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetCodeUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("load goal: %w", NotFound("goal"))
	if GetCode(err) != CodeNotFound {
		t.Fatalf("expected not_found, got %s", GetCode(err))
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound to match wrapped error")
	}
	if err.Error() != "load goal: goal not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetCodeDefaultsToInternal(t *testing.T) {
	if GetCode(errors.New("boom")) != CodeInternal {
		t.Fatal("expected plain errors to be internal")
	}
	if Is(nil, CodeInternal) {
		t.Fatal("nil error must not match any code")
	}
}

func TestConflictCarriesEntity(t *testing.T) {
	err := Conflict("goal review", "goal already has a review cycle")
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *Error")
	}
	if appErr.Entity != "goal review" || !IsConflict(err) {
		t.Fatalf("unexpected error: %+v", appErr)
	}
}
