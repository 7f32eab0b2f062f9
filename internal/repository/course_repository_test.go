package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/scheduling-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryFindByIDLoadsAssignments(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	courseRows := sqlmock.NewRows([]string{"id", "code", "name", "required_capacity", "created_at", "updated_at"}).
		AddRow("course-1", "CS101", "Intro to CS", 40, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, required_capacity, created_at, updated_at FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnRows(courseRows)

	assignmentRows := sqlmock.NewRows([]string{"instructor_id"}).
		AddRow("inst-1").
		AddRow("inst-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT instructor_id FROM course_instructors WHERE course_id = $1 ORDER BY instructor_id ASC")).
		WithArgs("course-1").
		WillReturnRows(assignmentRows)

	course, err := repo.FindByID(context.Background(), nil, "course-1")
	require.NoError(t, err)
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, 40, course.RequiredCapacity)
	assert.Equal(t, []string{"inst-1", "inst-2"}, course.InstructorIDs)
	assert.True(t, course.HasInstructor("inst-2"))
	assert.False(t, course.HasInstructor("inst-3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1")).
		WithArgs("course-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, "course-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "required_capacity", "created_at", "updated_at"}).
		AddRow("course-1", "CS101", "Intro to CS", 40, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1) ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WithArgs("%cs%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1)")).
		WithArgs("%cs%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "CS"})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
