package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/scheduling-api/internal/models"
)

// AttendanceRepository persists per-session attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch inserts or updates attendance records. Re-marking a student for
// the same session overwrites the prior status.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO attendance_records (id, schedule_id, student_id, status, note, marked_by, marked_at)
VALUES (:id, :schedule_id, :student_id, :status, :note, :marked_by, :marked_at)
ON CONFLICT (schedule_id, student_id) DO UPDATE
SET status = EXCLUDED.status,
    note = EXCLUDED.note,
    marked_by = EXCLUDED.marked_by,
    marked_at = EXCLUDED.marked_at`

	for i := range records {
		record := &records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.MarkedAt.IsZero() {
			record.MarkedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, record); err != nil {
			return fmt.Errorf("upsert attendance record: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns attendance records for a session ordered by student.
func (r *AttendanceRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, schedule_id, student_id, status, note, marked_by, marked_at FROM attendance_records WHERE schedule_id = $1 ORDER BY student_id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}
