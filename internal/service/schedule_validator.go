package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/scheduling-api/internal/models"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
)

type overlapReader interface {
	FindOverlapCandidates(ctx context.Context, exec sqlx.ExtContext, date, roomID, instructorID string) ([]models.Schedule, error)
}

type roomReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Room, error)
}

type courseReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.CourseDetail, error)
}

// ScheduleValidator runs the conflict rule set against the persisted state.
// It is called twice per commit: once outside the transaction for a fast
// rejection, and once inside, after the key locks are held, for the decision
// that counts.
type ScheduleValidator struct {
	schedules overlapReader
	rooms     roomReader
	courses   courseReader
}

// NewScheduleValidator constructs a validator over the given readers.
func NewScheduleValidator(schedules overlapReader, rooms roomReader, courses courseReader) *ScheduleValidator {
	return &ScheduleValidator{schedules: schedules, rooms: rooms, courses: courses}
}

// Validate evaluates every rule for one proposal and returns the aggregated
// result. excludeID names the record being updated so it cannot conflict
// with its own prior version. Business-rule failures populate the result;
// only missing referenced entities or repository failures return an error.
func (v *ScheduleValidator) Validate(ctx context.Context, exec sqlx.ExtContext, proposal models.ScheduleProposal, excludeID string) (models.ValidationResult, error) {
	result := models.ValidationResult{Accepted: true}
	result.Add(checkTimeRange(proposal.Interval)...)

	room, err := v.rooms.FindByID(ctx, exec, proposal.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	course, err := v.courses.FindByID(ctx, exec, proposal.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	result.Add(checkCapacity(*room, *course)...)
	result.Add(checkAssignment(*course, proposal.InstructorID)...)

	// An invalid interval cannot overlap anything meaningfully, so the
	// overlap rules are skipped rather than fed garbage.
	if proposal.Interval.Valid() {
		existing, err := v.schedules.FindOverlapCandidates(ctx, exec, proposal.Interval.Date, proposal.RoomID, proposal.InstructorID)
		if err != nil {
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overlap candidates")
		}
		result.Add(checkRoomOverlap(proposal, existing, excludeID)...)
		result.Add(checkInstructorOverlap(proposal, existing, excludeID)...)
	}

	return result, nil
}

// ValidateBatch validates proposals in submission order against both the
// persisted state and each other. Every item is fully validated even after
// the first failure so the caller sees the complete violation report; the
// batch is accepted only when every item is.
func (v *ScheduleValidator) ValidateBatch(ctx context.Context, exec sqlx.ExtContext, proposals []models.ScheduleProposal) (models.BatchValidationResult, error) {
	batch := models.BatchValidationResult{Accepted: true, Items: make([]models.ValidationResult, 0, len(proposals))}

	for i, proposal := range proposals {
		result, err := v.Validate(ctx, exec, proposal, "")
		if err != nil {
			return batch, err
		}
		result.Add(checkBatchOverlap(proposal, i, proposals[:i])...)

		if !result.Accepted {
			batch.Accepted = false
		}
		batch.Items = append(batch.Items, result)
	}

	return batch, nil
}
