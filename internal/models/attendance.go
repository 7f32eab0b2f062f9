package models

import "time"

// AttendanceStatus enumerates per-student attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// ValidAttendanceStatus reports whether the given status is known.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord marks one student's attendance for one scheduled session.
// The (schedule_id, student_id) pair is the natural key; re-marking updates
// the existing row.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	ScheduleID string           `db:"schedule_id" json:"schedule_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Note       string           `db:"note" json:"note,omitempty"`
	MarkedBy   string           `db:"marked_by" json:"marked_by"`
	MarkedAt   time.Time        `db:"marked_at" json:"marked_at"`
}
