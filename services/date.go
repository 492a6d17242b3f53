package services

import (
	"fmt"
	"time"
)

// Layouts used by the date and time inputs of the visit step
const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"

	// DisplayLayout is how timestamps are shown in the visit table
	DisplayLayout = "02/01/2006 15:04"
)

// ParseDate parses an HTML date input value (YYYY-MM-DD) in loc
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}
	return t, nil
}

// ParseVisitTime combines a date input and a time input (HH:MM) into the
// scheduled instant of the visit, in loc.
func ParseVisitTime(dateStr, hourStr string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse(HourLayout, hourStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: expected HH:MM")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

// FormatISO renders t in UTC with millisecond precision
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// FormatDisplay renders t in local time for tables
func FormatDisplay(t time.Time) string {
	return t.Local().Format(DisplayLayout)
}
