package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/scheduling-api/internal/models"
)

// scheduleColumns casts date/time columns to text so rows scan into the
// string-based interval model.
const scheduleColumns = `id, room_id, course_id, instructor_id, date::text AS date, start_time::text AS start_time, end_time::text AS end_time, status, created_at, updated_at`

// ScheduleRepository provides persistence for schedules. Every write method
// accepts a caller-supplied sqlx.ExtContext so it can participate in the
// commit transaction; nil falls back to the pooled handle.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"date":       "date",
		"start_time": "start_time",
		"room":       "room_id",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", scheduleColumns, base, column, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var sched models.Schedule
	if err := sqlx.GetContext(ctx, r.exec(exec), &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// FindOverlapCandidates returns the active schedules on the given date that
// share the room or the instructor, ordered deterministically. These are the
// only rows the conflict rules need to inspect.
func (r *ScheduleRepository) FindOverlapCandidates(ctx context.Context, exec sqlx.ExtContext, date, roomID, instructorID string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE status = $1 AND date = $2 AND (room_id = $3 OR instructor_id = $4) ORDER BY start_time ASC, id ASC`, scheduleColumns)

	var schedules []models.Schedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &schedules, query, models.ScheduleStatusActive, date, roomID, instructorID); err != nil {
		return nil, fmt.Errorf("find overlap candidates: %w", err)
	}
	return schedules, nil
}

// AcquireKeyLocks takes transaction-scoped advisory locks on the given keys.
// Keys must arrive sorted so concurrent commits acquire them in the same
// order. Row locks alone cannot serialise commits against an empty candidate
// set, so the contended room+date / instructor+date keys are locked
// explicitly; the locks release when the transaction ends.
func (r *ScheduleRepository) AcquireKeyLocks(ctx context.Context, exec sqlx.ExtContext, keys []string) error {
	target := r.exec(exec)
	for _, key := range keys {
		if _, err := target.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("acquire key lock %s: %w", key, err)
		}
	}
	return nil
}

// FindActiveByNaturalKey looks up the active schedule occupying the given
// room at the given date and start time, used for insert-or-update routing.
func (r *ScheduleRepository) FindActiveByNaturalKey(ctx context.Context, exec sqlx.ExtContext, roomID, date, startTime string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE status = $1 AND room_id = $2 AND date = $3 AND start_time = $4", scheduleColumns)
	var sched models.Schedule
	if err := sqlx.GetContext(ctx, r.exec(exec), &sched, query, models.ScheduleStatusActive, roomID, date, startTime); err != nil {
		return nil, err
	}
	return &sched, nil
}

// Create stores a new schedule row.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusActive
	}

	const query = `INSERT INTO schedules (id, room_id, course_id, instructor_id, date, start_time, end_time, status, created_at, updated_at) VALUES (:id, :room_id, :course_id, :instructor_id, :date, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a schedule row.
func (r *ScheduleRepository) Update(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET room_id = :room_id, course_id = :course_id, instructor_id = :instructor_id, date = :date, start_time = :start_time, end_time = :end_time, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Cancel soft-deletes a schedule. Cancelled rows stop participating in
// conflict checks but remain for attendance history.
func (r *ScheduleRepository) Cancel(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	if _, err := r.exec(exec).ExecContext(ctx, query, models.ScheduleStatusCancelled, time.Now().UTC(), id, models.ScheduleStatusActive); err != nil {
		return fmt.Errorf("cancel schedule: %w", err)
	}
	return nil
}
