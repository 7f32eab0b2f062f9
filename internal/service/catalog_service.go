package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campushq/scheduling-api/internal/models"
	appErrors "github.com/campushq/scheduling-api/pkg/errors"
)

type roomCatalog interface {
	roomReader
	List(ctx context.Context) ([]models.Room, error)
}

type courseCatalog interface {
	courseReader
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

type instructorCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Instructor, error)
}

type enrollmentReader interface {
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	CountActiveByCourse(ctx context.Context, courseID string) (int, error)
}

// CourseSummary is a course with its roster size, the number the capacity
// rule compares against room capacity.
type CourseSummary struct {
	models.CourseDetail
	EnrolledCount int `json:"enrolled_count"`
}

// CatalogService exposes the read-only catalog the scheduling engine
// validates against: rooms, courses with assignments, and instructors.
type CatalogService struct {
	rooms       roomCatalog
	courses     courseCatalog
	instructors instructorCatalog
	enrollments enrollmentReader
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(rooms roomCatalog, courses courseCatalog, instructors instructorCatalog, enrollments enrollmentReader) *CatalogService {
	return &CatalogService{rooms: rooms, courses: courses, instructors: instructors, enrollments: enrollments}
}

// ListRooms returns all rooms.
func (s *CatalogService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// GetRoom loads one room.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// ListCourses returns courses with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetCourse loads a course with its instructor assignments and roster size.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*CourseSummary, error) {
	course, err := s.courses.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrolled, err := s.enrollments.CountActiveByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	return &CourseSummary{CourseDetail: *course, EnrolledCount: enrolled}, nil
}

// ListCourseRoster returns the active enrollments of a course.
func (s *CatalogService) ListCourseRoster(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	roster, err := s.enrollments.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return roster, nil
}

// ListInstructors returns instructors, optionally only active ones.
func (s *CatalogService) ListInstructors(ctx context.Context, activeOnly bool) ([]models.Instructor, error) {
	instructors, err := s.instructors.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// GetInstructor loads one instructor.
func (s *CatalogService) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}
