package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dormitory/constants"
)

// AcademicSettingsID is the primary key of the single settings row.
const AcademicSettingsID = 1

type AcademicSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	CurrentAcademicYear string    `gorm:"size:9;not null" json:"currentAcademicYear"`
	CurrentSemester     string    `gorm:"size:8;not null" json:"currentSemester"`
	BookingsLocked      bool      `gorm:"not null;default:false" json:"bookingsLocked"`
	UpdatedBy           *uint     `json:"updatedBy,omitempty"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ParseAcademicYear splits "2025-2026" into its start and end year.
func ParseAcademicYear(year string) (int, int, error) {
	parts := strings.Split(year, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("academic year %q must look like 2025-2026", year)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("academic year %q: %w", year, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("academic year %q: %w", year, err)
	}
	if end != start+1 {
		return 0, 0, fmt.Errorf("academic year %q must span consecutive years", year)
	}
	return start, end, nil
}

func FormatAcademicYear(start int) string {
	return fmt.Sprintf("%d-%d", start, start+1)
}

// NextPeriod returns the period that follows year/semester: 1 -> 2, and 2 -> 1 of the next year.
func NextPeriod(year, semester string) (string, string, error) {
	start, _, err := ParseAcademicYear(year)
	if err != nil {
		return "", "", err
	}
	switch semester {
	case constants.SemesterFirst:
		return year, constants.SemesterSecond, nil
	case constants.SemesterSecond:
		return FormatAcademicYear(start + 1), constants.SemesterFirst, nil
	default:
		return "", "", fmt.Errorf("unknown semester %q", semester)
	}
}

// PreviousAcademicYear returns the year before the given one.
func PreviousAcademicYear(year string) (string, error) {
	start, _, err := ParseAcademicYear(year)
	if err != nil {
		return "", err
	}
	return FormatAcademicYear(start - 1), nil
}
