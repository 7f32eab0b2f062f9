package models

import "time"

// Course is a catalog entry schedules are booked against.
// RequiredCapacity is the seat count a room must provide.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	RequiredCapacity int       `db:"required_capacity" json:"required_capacity"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail bundles a course with its assigned instructor ids.
type CourseDetail struct {
	Course
	InstructorIDs []string `json:"instructor_ids"`
}

// HasInstructor reports whether the instructor is assigned to the course.
func (c CourseDetail) HasInstructor(instructorID string) bool {
	for _, id := range c.InstructorIDs {
		if id == instructorID {
			return true
		}
	}
	return false
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	Search   string
	Page     int
	PageSize int
}
