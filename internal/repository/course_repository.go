package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/scheduling-api/internal/models"
)

// CourseRepository reads the course catalog including instructor assignments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a course with its assigned instructor ids.
func (r *CourseRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.CourseDetail, error) {
	target := r.exec(exec)

	const query = `SELECT id, code, name, required_capacity, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, target, &course, query, id); err != nil {
		return nil, err
	}

	const assignmentQuery = `SELECT instructor_id FROM course_instructors WHERE course_id = $1 ORDER BY instructor_id ASC`
	var instructorIDs []string
	if err := sqlx.SelectContext(ctx, target, &instructorIDs, assignmentQuery, id); err != nil {
		return nil, fmt.Errorf("load course instructors: %w", err)
	}

	return &models.CourseDetail{Course: course, InstructorIDs: instructorIDs}, nil
}

// List returns courses with optional search and pagination.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf("SELECT id, code, name, required_capacity, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", base, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}
