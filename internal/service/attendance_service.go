package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campushq/scheduling-api/internal/models"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
)

type attendanceRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.AttendanceRecord) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error)
}

type scheduleReader interface {
	Get(ctx context.Context, id string) (*models.Schedule, error)
}

// AttendanceMark is one student's mark in a MarkAttendanceRequest.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Note      string `json:"note"`
}

// MarkAttendanceRequest records attendance for one scheduled session.
type MarkAttendanceRequest struct {
	Marks []AttendanceMark `json:"marks" validate:"required,min=1,dive"`
}

// AttendanceService records and reads per-session attendance. Marks are
// accepted only for students on the course roster and only against sessions
// that still exist.
type AttendanceService struct {
	attendance  attendanceRepository
	schedules   scheduleReader
	enrollments enrollmentReader
	payload     *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(attendance attendanceRepository, schedules scheduleReader, enrollments enrollmentReader, payload *validator.Validate, logger *zap.Logger) *AttendanceService {
	if payload == nil {
		payload = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{attendance: attendance, schedules: schedules, enrollments: enrollments, payload: payload, logger: logger}
}

// Mark upserts attendance for the given session. markedBy identifies the
// caller taking the roll. Statuses outside the known set and students not on
// the course roster reject the whole request.
func (s *AttendanceService) Mark(ctx context.Context, scheduleID, markedBy string, req MarkAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.payload.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	roster, err := s.enrollments.ListActiveByCourse(ctx, sched.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, enrollment := range roster {
		enrolled[enrollment.StudentID] = struct{}{}
	}

	records := make([]models.AttendanceRecord, 0, len(req.Marks))
	seen := make(map[string]struct{}, len(req.Marks))
	for _, mark := range req.Marks {
		status := models.AttendanceStatus(mark.Status)
		if !models.ValidAttendanceStatus(status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown attendance status %q", mark.Status))
		}
		if _, ok := enrolled[mark.StudentID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in course %s", mark.StudentID, sched.CourseID))
		}
		if _, dup := seen[mark.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", mark.StudentID))
		}
		seen[mark.StudentID] = struct{}{}

		records = append(records, models.AttendanceRecord{
			ScheduleID: scheduleID,
			StudentID:  mark.StudentID,
			Status:     status,
			Note:       mark.Note,
			MarkedBy:   markedBy,
		})
	}

	if err := s.attendance.UpsertBatch(ctx, nil, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Info("attendance recorded",
		zap.String("schedule_id", scheduleID),
		zap.String("marked_by", markedBy),
		zap.Int("marks", len(records)))
	return records, nil
}

// ListBySchedule returns the attendance records of one session.
func (s *AttendanceService) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	records, err := s.attendance.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}
