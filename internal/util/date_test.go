package util

import (
	"errors"
	"testing"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
)

func TestDateToUTCDate_KeepsCalendarDate(t *testing.T) {
	offsets := []int{-12, -8, -5, 0, 1, 5, 9, 14}

	for _, hours := range offsets {
		loc := time.FixedZone("test", hours*3600)
		for _, clock := range []int{0, 1, 12, 23} {
			picked := time.Date(2024, 3, 1, clock, 30, 0, 0, loc)
			got := DateToUTCDate(picked)

			if got.Location() != time.UTC {
				t.Errorf("offset %d: expected UTC location, got %v", hours, got.Location())
			}
			if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
				t.Errorf("offset %d clock %d: expected 2024-03-01, got %s", hours, clock, got.Format(DateLayout))
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("offset %d: expected midnight, got %s", hours, got.Format(time.RFC3339))
			}
		}
	}
}

func TestDateToUTCDate_RoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	picked := time.Date(2024, 12, 31, 0, 15, 0, 0, loc)

	stored := DateToUTCDate(picked)
	readBack, err := ParseDate(stored.Format(DateLayout))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !readBack.Equal(stored) {
		t.Errorf("Expected %s, got %s", stored, readBack)
	}
	if readBack.Day() != picked.Day() {
		t.Errorf("Expected day %d, got %d", picked.Day(), readBack.Day())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("03/01/2024")
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("Expected ErrInvalidDateRange, got %v", err)
	}
}

func TestParseDateRange_Defaults(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	from, to, err := ParseDateRange("", "", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if from.Format(DateLayout) != "2024-03-01" {
		t.Errorf("Expected from 2024-03-01, got %s", from.Format(DateLayout))
	}
	if to.Format(DateLayout) != "2024-03-15" {
		t.Errorf("Expected to 2024-03-15, got %s", to.Format(DateLayout))
	}
}

func TestParseDateRange_Explicit(t *testing.T) {
	from, to, err := ParseDateRange("2024-01-01", "2024-01-31", time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if from.Day() != 1 || to.Day() != 31 {
		t.Errorf("Unexpected range %s..%s", from, to)
	}
}

func TestValidateDateRange(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantErr bool
	}{
		{"same day", base, base, false},
		{"exactly max", base, base.AddDate(0, 0, domain.MaxDateRangeDays), false},
		{"over max", base, base.AddDate(0, 0, domain.MaxDateRangeDays+1), true},
		{"reversed", base.AddDate(0, 0, 1), base, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidDateRange) {
				t.Errorf("Expected ErrInvalidDateRange, got %v", err)
			}
		})
	}
}
