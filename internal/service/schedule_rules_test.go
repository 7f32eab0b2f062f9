package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushq/scheduling-api/internal/models"
)

func proposalAt(roomID, instructorID, date, start, end string) models.ScheduleProposal {
	return models.ScheduleProposal{
		RoomID:       roomID,
		CourseID:     "course-1",
		InstructorID: instructorID,
		Interval:     models.TimeInterval{Date: date, StartTime: start, EndTime: end},
	}
}

func activeSchedule(id, roomID, instructorID, date, start, end string) models.Schedule {
	return models.Schedule{
		ID:           id,
		RoomID:       roomID,
		CourseID:     "course-x",
		InstructorID: instructorID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		Status:       models.ScheduleStatusActive,
	}
}

func TestCheckTimeRange(t *testing.T) {
	assert.Empty(t, checkTimeRange(models.TimeInterval{Date: "2026-09-01", StartTime: "09:00", EndTime: "10:00"}))

	violations := checkTimeRange(models.TimeInterval{Date: "2026-09-01", StartTime: "10:00", EndTime: "09:00"})
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationInvalidTimeRange, violations[0].Kind)
}

func TestCheckCapacity(t *testing.T) {
	room := models.Room{ID: "room-1", Capacity: 30}

	exact := models.CourseDetail{Course: models.Course{ID: "course-1", RequiredCapacity: 30}}
	assert.Empty(t, checkCapacity(room, exact))

	over := models.CourseDetail{Course: models.Course{ID: "course-1", RequiredCapacity: 31}}
	violations := checkCapacity(room, over)
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationCapacity, violations[0].Kind)
}

func TestCheckAssignment(t *testing.T) {
	course := models.CourseDetail{
		Course:        models.Course{ID: "course-1"},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}

	assert.Empty(t, checkAssignment(course, "inst-1"))

	violations := checkAssignment(course, "inst-9")
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationInstructorNotAssigned, violations[0].Kind)
}

func TestCheckRoomOverlap(t *testing.T) {
	existing := []models.Schedule{
		activeSchedule("sched-1", "room-1", "inst-9", "2026-09-01", "09:00", "10:00"),
		activeSchedule("sched-2", "room-2", "inst-9", "2026-09-01", "09:00", "10:00"),
	}

	proposal := proposalAt("room-1", "inst-1", "2026-09-01", "09:30", "10:30")
	violations := checkRoomOverlap(proposal, existing, "")
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationRoomConflict, violations[0].Kind)
	assert.Equal(t, "sched-1", violations[0].ConflictingScheduleID)

	// Touching boundaries never conflict.
	backToBack := proposalAt("room-1", "inst-1", "2026-09-01", "10:00", "11:00")
	assert.Empty(t, checkRoomOverlap(backToBack, existing, ""))

	// The row being updated is skipped.
	assert.Empty(t, checkRoomOverlap(proposal, existing, "sched-1"))
}

func TestCheckInstructorOverlap(t *testing.T) {
	existing := []models.Schedule{
		activeSchedule("sched-1", "room-9", "inst-1", "2026-09-01", "09:00", "10:00"),
	}

	proposal := proposalAt("room-1", "inst-1", "2026-09-01", "09:30", "10:30")
	violations := checkInstructorOverlap(proposal, existing, "")
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationInstructorConflict, violations[0].Kind)
	assert.Equal(t, "sched-1", violations[0].ConflictingScheduleID)

	otherInstructor := proposalAt("room-1", "inst-2", "2026-09-01", "09:30", "10:30")
	assert.Empty(t, checkInstructorOverlap(otherInstructor, existing, ""))
}

func TestCheckBatchOverlapAttributesLaterItem(t *testing.T) {
	first := proposalAt("room-1", "inst-1", "2026-09-01", "09:00", "10:00")
	second := proposalAt("room-1", "inst-2", "2026-09-01", "09:30", "10:30")

	assert.Empty(t, checkBatchOverlap(first, 0, nil))

	violations := checkBatchOverlap(second, 1, []models.ScheduleProposal{first})
	assert.Len(t, violations, 1)
	assert.Equal(t, models.ViolationRoomConflict, violations[0].Kind)

	// Same instructor and room in one slot yields both kinds.
	third := proposalAt("room-1", "inst-1", "2026-09-01", "09:15", "09:45")
	violations = checkBatchOverlap(third, 2, []models.ScheduleProposal{first})
	assert.Len(t, violations, 2)
}
