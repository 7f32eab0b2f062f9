package models

import "time"

// ScheduleStatus is the lifecycle state of a persisted schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

// Schedule represents a committed room booking for a course session.
// Cancelled rows are kept for history and excluded from conflict checks.
type Schedule struct {
	ID           string         `db:"id" json:"id"`
	RoomID       string         `db:"room_id" json:"room_id"`
	CourseID     string         `db:"course_id" json:"course_id"`
	InstructorID string         `db:"instructor_id" json:"instructor_id"`
	Date         string         `db:"date" json:"date"`
	StartTime    string         `db:"start_time" json:"start_time"`
	EndTime      string         `db:"end_time" json:"end_time"`
	Status       ScheduleStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Interval returns the schedule's time interval.
func (s Schedule) Interval() TimeInterval {
	return TimeInterval{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
}

// ScheduleProposal is an unvalidated, unpersisted candidate schedule. It is
// built per request and discarded when validation rejects it.
type ScheduleProposal struct {
	RoomID       string       `json:"room_id"`
	CourseID     string       `json:"course_id"`
	InstructorID string       `json:"instructor_id"`
	Interval     TimeInterval `json:"interval"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	Date         string
	RoomID       string
	CourseID     string
	InstructorID string
	Status       ScheduleStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
