package util

import (
	"fmt"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateToUTCDate returns UTC midnight of t's calendar date as seen in t's own location.
// A date picked at 00:30 in UTC+9 stays on the same day instead of sliding back to the previous one.
func DateToUTCDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", domain.ErrInvalidDateRange, s)
	}
	return t, nil
}

// MonthStart returns the first day of t's month at UTC midnight
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseDateRange parses optional from/to query values.
// Missing from defaults to the start of now's month; missing to defaults to now's date.
func ParseDateRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	from := MonthStart(now)
	to := DateToUTCDate(now)

	var err error
	if fromStr != "" {
		if from, err = ParseDate(fromStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = ParseDate(toStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if err := ValidateDateRange(from, to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// ValidateDateRange checks from <= to and that the range spans at most domain.MaxDateRangeDays
func ValidateDateRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: from must not be after to", domain.ErrInvalidDateRange)
	}
	if to.Sub(from) > time.Duration(domain.MaxDateRangeDays)*24*time.Hour {
		return fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidDateRange, domain.MaxDateRangeDays)
	}
	return nil
}
