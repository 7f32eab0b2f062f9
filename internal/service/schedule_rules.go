package service

import (
	"fmt"

	"github.com/campushq/scheduling-api/internal/models"
)

// The conflict rule set. Each rule is a pure function over a proposal and the
// catalog/schedule context it needs, returning zero or more violations.
// Rules never short-circuit each other; the orchestrator collects everything.

func checkTimeRange(interval models.TimeInterval) []models.Violation {
	if interval.Valid() {
		return nil
	}
	return []models.Violation{{
		Kind:    models.ViolationInvalidTimeRange,
		Message: fmt.Sprintf("interval %s %s-%s must have a valid date and start strictly before end", interval.Date, interval.StartTime, interval.EndTime),
	}}
}

func checkCapacity(room models.Room, course models.CourseDetail) []models.Violation {
	if room.Capacity >= course.RequiredCapacity {
		return nil
	}
	return []models.Violation{{
		Kind:    models.ViolationCapacity,
		Message: fmt.Sprintf("room %s seats %d but course %s requires %d", room.ID, room.Capacity, course.ID, course.RequiredCapacity),
	}}
}

func checkAssignment(course models.CourseDetail, instructorID string) []models.Violation {
	if course.HasInstructor(instructorID) {
		return nil
	}
	return []models.Violation{{
		Kind:    models.ViolationInstructorNotAssigned,
		Message: fmt.Sprintf("instructor %s is not assigned to course %s", instructorID, course.ID),
	}}
}

// checkRoomOverlap emits one violation per active schedule occupying the same
// room at an overlapping time. excludeID skips the record being updated.
func checkRoomOverlap(proposal models.ScheduleProposal, existing []models.Schedule, excludeID string) []models.Violation {
	var violations []models.Violation
	for _, sched := range existing {
		if sched.ID == excludeID || sched.RoomID != proposal.RoomID {
			continue
		}
		if proposal.Interval.Overlaps(sched.Interval()) {
			violations = append(violations, models.Violation{
				Kind:                  models.ViolationRoomConflict,
				Message:               fmt.Sprintf("room %s is already booked %s %s-%s by schedule %s", proposal.RoomID, sched.Date, sched.StartTime, sched.EndTime, sched.ID),
				ConflictingScheduleID: sched.ID,
			})
		}
	}
	return violations
}

// checkInstructorOverlap is the same overlap test keyed on the instructor,
// independent of room.
func checkInstructorOverlap(proposal models.ScheduleProposal, existing []models.Schedule, excludeID string) []models.Violation {
	var violations []models.Violation
	for _, sched := range existing {
		if sched.ID == excludeID || sched.InstructorID != proposal.InstructorID {
			continue
		}
		if proposal.Interval.Overlaps(sched.Interval()) {
			violations = append(violations, models.Violation{
				Kind:                  models.ViolationInstructorConflict,
				Message:               fmt.Sprintf("instructor %s is already teaching %s %s-%s in schedule %s", proposal.InstructorID, sched.Date, sched.StartTime, sched.EndTime, sched.ID),
				ConflictingScheduleID: sched.ID,
			})
		}
	}
	return violations
}

// checkBatchOverlap compares a proposal against the earlier items of its own
// batch. Conflicts are attributed to the later item in submission order; the
// overlap test handles invalid earlier intervals by never matching them.
func checkBatchOverlap(proposal models.ScheduleProposal, index int, earlier []models.ScheduleProposal) []models.Violation {
	var violations []models.Violation
	for j, prev := range earlier {
		if !proposal.Interval.Overlaps(prev.Interval) {
			continue
		}
		if prev.RoomID == proposal.RoomID {
			violations = append(violations, models.Violation{
				Kind:    models.ViolationRoomConflict,
				Message: fmt.Sprintf("proposal %d overlaps proposal %d in the same batch for room %s", index, j, proposal.RoomID),
			})
		}
		if prev.InstructorID == proposal.InstructorID {
			violations = append(violations, models.Violation{
				Kind:    models.ViolationInstructorConflict,
				Message: fmt.Sprintf("proposal %d overlaps proposal %d in the same batch for instructor %s", index, j, proposal.InstructorID),
			})
		}
	}
	return violations
}
