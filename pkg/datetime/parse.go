// Package datetime provides date utilities for exam schedules.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/nimora/nimora/pkg/constants"
)

// ExamDateLayout is the day-month-year layout of portal exam dates, e.g. "14-03-25".
const ExamDateLayout = constants.ExamDateLayout

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseExamDate parses a portal exam date.
func ParseExamDate(date string) (time.Time, error) {
	t, err := time.Parse(ExamDateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid exam date %q: %w", date, err)
	}
	return t, nil
}

// DaysUntil returns the whole days from the start of now's day to date.
// Past dates give negative values.
func DaysUntil(date, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// Urgency classifies how soon an exam is.
type Urgency string

const (
	UrgencyPast   Urgency = "past"
	UrgencyUrgent Urgency = "urgent" // 0-2 days
	UrgencySoon   Urgency = "soon"   // 3-7 days
	UrgencyLater  Urgency = "later"
)

// ClassifyDays maps a day count from DaysUntil to an Urgency.
func ClassifyDays(days int) Urgency {
	switch {
	case days < 0:
		return UrgencyPast
	case days <= 2:
		return UrgencyUrgent
	case days <= 7:
		return UrgencySoon
	default:
		return UrgencyLater
	}
}

// DescribeDays renders a day count the way the timetable shows it.
func DescribeDays(days int) string {
	switch {
	case days < 0:
		return "Past"
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// CompareExamDates orders two portal dates chronologically. Unparseable
// dates sort after parseable ones and compare equal among themselves.
func CompareExamDates(a, b string) int {
	ta, errA := ParseExamDate(a)
	tb, errB := ParseExamDate(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ta.Compare(tb)
}
