package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(date, start, end string) TimeInterval {
	return TimeInterval{Date: date, StartTime: start, EndTime: end}
}

func TestTimeIntervalValid(t *testing.T) {
	cases := []struct {
		name     string
		interval TimeInterval
		want     bool
	}{
		{"well formed", interval("2026-09-01", "09:00", "10:30"), true},
		{"with zero seconds", interval("2026-09-01", "09:00:00", "10:30:00"), true},
		{"start equals end", interval("2026-09-01", "09:00", "09:00"), false},
		{"start after end", interval("2026-09-01", "11:00", "09:00"), false},
		{"bad date", interval("2026-13-40", "09:00", "10:00"), false},
		{"bad clock", interval("2026-09-01", "25:00", "26:00"), false},
		{"nonzero seconds", interval("2026-09-01", "09:00:30", "10:00:00"), false},
		{"empty", TimeInterval{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.interval.Valid())
		})
	}
}

func TestTimeIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a    TimeInterval
		b    TimeInterval
		want bool
	}{
		{"identical", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-01", "09:00", "10:00"), true},
		{"partial overlap", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-01", "09:30", "10:30"), true},
		{"containment", interval("2026-09-01", "09:00", "12:00"), interval("2026-09-01", "10:00", "11:00"), true},
		{"touching boundaries", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-01", "10:00", "11:00"), false},
		{"disjoint", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-01", "14:00", "15:00"), false},
		{"different dates", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-02", "09:00", "10:00"), false},
		{"invalid other", interval("2026-09-01", "09:00", "10:00"), interval("2026-09-01", "10:00", "09:00"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestClockMinutes(t *testing.T) {
	minutes, err := ClockMinutes("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, minutes)

	minutes, err = ClockMinutes("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, minutes)

	for _, bad := range []string{"", "9", "24:00", "09:60", "09:30:15", "ab:cd"} {
		_, err := ClockMinutes(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidationResultAdd(t *testing.T) {
	result := ValidationResult{Accepted: true}
	result.Add()
	assert.True(t, result.Accepted)

	result.Add(Violation{Kind: ViolationRoomConflict, Message: "busy"})
	assert.False(t, result.Accepted)
	assert.Len(t, result.Violations, 1)
}
