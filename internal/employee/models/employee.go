package models

import (
	"strings"
	"time"
	"unicode/utf8"

	dErrors "personnel/pkg/domain-errors"
)

const (
	MaxFullNameLength = 100
	MaxGenderLength   = 10

	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Employee is a single personnel record.
//
// Invariants:
//   - ID is assigned by storage on insert and never changes
//   - FullName is non-empty and at most 100 characters
//   - DateOfBirth carries no time-of-day (UTC midnight)
//   - Gender is non-empty and at most 10 characters; not restricted to the
//     Male/Female pool
//
// No uniqueness holds on (FullName, DateOfBirth).
type Employee struct {
	ID          int64
	FullName    string
	DateOfBirth time.Time
	Gender      string
}

// NewEmployee validates fields for a record that has not been persisted yet.
// Names and gender are stored exactly as given; blank values are rejected.
func NewEmployee(fullName string, dateOfBirth time.Time, gender string) (Employee, error) {
	if strings.TrimSpace(fullName) == "" {
		return Employee{}, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return Employee{}, dErrors.Newf(dErrors.CodeValidation, "full name must be at most %d characters", MaxFullNameLength)
	}
	if strings.TrimSpace(gender) == "" {
		return Employee{}, dErrors.New(dErrors.CodeValidation, "gender is required")
	}
	if utf8.RuneCountInString(gender) > MaxGenderLength {
		return Employee{}, dErrors.Newf(dErrors.CodeValidation, "gender must be at most %d characters", MaxGenderLength)
	}
	if dateOfBirth.IsZero() {
		return Employee{}, dErrors.New(dErrors.CodeValidation, "date of birth is required")
	}

	return Employee{
		FullName:    fullName,
		DateOfBirth: Date(dateOfBirth),
		Gender:      gender,
	}, nil
}

// Age returns completed years at today: the year difference, minus one when
// today's (month, day) precedes the birthday's.
func (e Employee) Age(today time.Time) int {
	dob := e.DateOfBirth
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
