package models

import (
	"strings"
	"time"

	dErrors "personnel/pkg/domain-errors"
)

// DateLayout is the ISO calendar date layout used on the command line and in
// output.
const DateLayout = time.DateOnly

// Date drops the time-of-day, keeping the calendar date of t in its own
// location, and returns it at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid date of birth format, use YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
