package db

import "time"

// NullString maps the empty string to SQL NULL for optional references.
func NullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// DateOnly truncates a timestamp to midnight UTC for DATE columns.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
