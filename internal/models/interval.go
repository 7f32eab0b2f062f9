package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used across the API.
const DateLayout = "2006-01-02"

// TimeInterval is a half-open time range [StartTime, EndTime) on a specific
// date. The end instant is excluded so back-to-back bookings never conflict.
type TimeInterval struct {
	Date      string `json:"date" db:"date"`
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
}

// Valid reports whether the interval has a parseable date, parseable clock
// times, and a start strictly before its end.
func (i TimeInterval) Valid() bool {
	if _, err := time.Parse(DateLayout, i.Date); err != nil {
		return false
	}
	start, err := ClockMinutes(i.StartTime)
	if err != nil {
		return false
	}
	end, err := ClockMinutes(i.EndTime)
	if err != nil {
		return false
	}
	return start < end
}

// Overlaps applies the half-open overlap test. Intervals on different dates
// never overlap; an invalid interval overlaps nothing.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	if !i.Valid() || !other.Valid() {
		return false
	}
	if i.Date != other.Date {
		return false
	}

	aStart, _ := ClockMinutes(i.StartTime)
	aEnd, _ := ClockMinutes(i.EndTime)
	bStart, _ := ClockMinutes(other.StartTime)
	bEnd, _ := ClockMinutes(other.EndTime)

	return aStart < bEnd && bStart < aEnd
}

// ClockMinutes parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds are accepted because Postgres renders TIME columns with them, but
// scheduling granularity is whole minutes and seconds must be zero.
func ClockMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	if len(parts) == 3 {
		second, err := strconv.Atoi(parts[2])
		if err != nil || second != 0 {
			return 0, fmt.Errorf("invalid seconds in %q", clock)
		}
	}

	return hour*60 + minute, nil
}
