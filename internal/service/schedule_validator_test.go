package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/scheduling-api/internal/models"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
)

type overlapReaderStub struct {
	schedules []models.Schedule
	err       error
}

func (s *overlapReaderStub) FindOverlapCandidates(ctx context.Context, exec sqlx.ExtContext, date, roomID, instructorID string) ([]models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Schedule
	for _, sched := range s.schedules {
		if sched.Status != models.ScheduleStatusActive || sched.Date != date {
			continue
		}
		if sched.RoomID == roomID || sched.InstructorID == instructorID {
			out = append(out, sched)
		}
	}
	return out, nil
}

type roomReaderStub struct {
	rooms map[string]models.Room
}

func (s *roomReaderStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

type courseReaderStub struct {
	courses map[string]models.CourseDetail
}

func (s *courseReaderStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.CourseDetail, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func newValidatorFixture(schedules ...models.Schedule) *ScheduleValidator {
	rooms := &roomReaderStub{rooms: map[string]models.Room{
		"room-1": {ID: "room-1", Capacity: 30},
		"room-2": {ID: "room-2", Capacity: 10},
	}}
	courses := &courseReaderStub{courses: map[string]models.CourseDetail{
		"course-1": {
			Course:        models.Course{ID: "course-1", RequiredCapacity: 25},
			InstructorIDs: []string{"inst-1"},
		},
	}}
	return NewScheduleValidator(&overlapReaderStub{schedules: schedules}, rooms, courses)
}

func TestScheduleValidatorAccepts(t *testing.T) {
	validator := newValidatorFixture()
	result, err := validator.Validate(context.Background(), nil, proposalAt("room-1", "inst-1", "2026-09-01", "09:00", "10:00"), "")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Empty(t, result.Violations)
}

func TestScheduleValidatorAccumulatesAllViolations(t *testing.T) {
	validator := newValidatorFixture()

	// Undersized room and an unassigned instructor fail two rules at once.
	proposal := proposalAt("room-2", "inst-9", "2026-09-01", "09:00", "10:00")
	result, err := validator.Validate(context.Background(), nil, proposal, "")
	require.NoError(t, err)
	assert.False(t, result.Accepted)

	kinds := make(map[models.ViolationKind]bool)
	for _, v := range result.Violations {
		kinds[v.Kind] = true
	}
	assert.True(t, kinds[models.ViolationCapacity])
	assert.True(t, kinds[models.ViolationInstructorNotAssigned])
}

func TestScheduleValidatorSkipsOverlapForInvalidInterval(t *testing.T) {
	validator := newValidatorFixture(
		activeSchedule("sched-1", "room-1", "inst-1", "2026-09-01", "09:00", "10:00"),
	)

	proposal := proposalAt("room-1", "inst-1", "2026-09-01", "10:00", "09:00")
	result, err := validator.Validate(context.Background(), nil, proposal, "")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Len(t, result.Violations, 1)
	assert.Equal(t, models.ViolationInvalidTimeRange, result.Violations[0].Kind)
}

func TestScheduleValidatorDetectsPersistedConflicts(t *testing.T) {
	validator := newValidatorFixture(
		activeSchedule("sched-1", "room-1", "inst-1", "2026-09-01", "09:00", "10:00"),
	)

	proposal := proposalAt("room-1", "inst-1", "2026-09-01", "09:30", "10:30")
	result, err := validator.Validate(context.Background(), nil, proposal, "")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Len(t, result.Violations, 2)
}

func TestScheduleValidatorExcludesOwnRow(t *testing.T) {
	validator := newValidatorFixture(
		activeSchedule("sched-1", "room-1", "inst-1", "2026-09-01", "09:00", "10:00"),
	)

	proposal := proposalAt("room-1", "inst-1", "2026-09-01", "09:30", "10:30")
	result, err := validator.Validate(context.Background(), nil, proposal, "sched-1")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestScheduleValidatorUnknownRoom(t *testing.T) {
	validator := newValidatorFixture()
	_, err := validator.Validate(context.Background(), nil, proposalAt("room-x", "inst-1", "2026-09-01", "09:00", "10:00"), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleValidatorBatchReportsEveryItem(t *testing.T) {
	validator := newValidatorFixture()

	proposals := []models.ScheduleProposal{
		proposalAt("room-1", "inst-1", "2026-09-01", "09:00", "10:00"),
		proposalAt("room-1", "inst-1", "2026-09-01", "09:30", "10:30"),
		proposalAt("room-2", "inst-9", "2026-09-01", "11:00", "12:00"),
	}

	batch, err := validator.ValidateBatch(context.Background(), nil, proposals)
	require.NoError(t, err)
	assert.False(t, batch.Accepted)
	require.Len(t, batch.Items, 3)

	assert.True(t, batch.Items[0].Accepted)

	// The later item carries the intra-batch conflict.
	assert.False(t, batch.Items[1].Accepted)
	assert.Len(t, batch.Items[1].Violations, 2)

	// Item 3 is still fully validated despite earlier failures.
	assert.False(t, batch.Items[2].Accepted)
	assert.Len(t, batch.Items[2].Violations, 2)
}
