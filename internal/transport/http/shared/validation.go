package shared

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"perfcycle/internal/transport/http/api"
)

// Issue is one rejected payload field.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects payload issues so a request is rejected once with
// every problem listed.
type Validator struct {
	issues []Issue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if v == nil || strings.TrimSpace(reason) == "" {
		return
	}
	v.issues = append(v.issues, Issue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Ref requires value to be a record id.
func (v *Validator) Ref(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.Add(field, "is required")
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		v.Add(field, "must be a valid id")
	}
}

// OptionalRef checks value only when it is set.
func (v *Validator) OptionalRef(field, value string) {
	if strings.TrimSpace(value) != "" {
		v.Ref(field, value)
	}
}

// OneOf accepts an empty value; callers pair it with Required when the field
// is mandatory. Matching ignores case and surrounding space.
func (v *Validator) OneOf(field, value string, allowed []string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" || slices.Contains(allowed, normalized) {
		return
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(raw)
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(startField, "must be on or before "+endField)
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Issues returns the collected issues ordered by field.
func (v *Validator) Issues() []Issue {
	if !v.HasIssues() {
		return nil
	}
	out := slices.Clone(v.issues)
	slices.SortStableFunc(out, func(a, b Issue) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})
	return out
}

// Reject writes a 400 listing every issue and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": v.Issues()}, requestID)
	return true
}
