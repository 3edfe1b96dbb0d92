package db

import (
	"context"

	"student-records/models"
)

// Store is the persistence layer behind the records API.
// Single-entity reads return (nil, nil) when the entity does not exist.
type Store interface {
	AddClass(ctx context.Context, clazz models.Clazz) error
	GetClassByID(ctx context.Context, classID string) (*models.Clazz, error)
	GetAllClasses(ctx context.Context) ([]models.Clazz, error)
	ClassExists(ctx context.Context, classID string) (bool, error)

	AddCourse(ctx context.Context, course models.Course) error
	GetCourseByID(ctx context.Context, courseID string) (*models.Course, error)
	GetAllCourses(ctx context.Context) ([]models.Course, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)

	// SaveStudent creates the student or replaces every field of an existing one,
	// including the ordered list of marked courses.
	SaveStudent(ctx context.Context, student models.Student) error
	GetStudentByID(ctx context.Context, studentID string) (*models.Student, error)
	GetAllStudents(ctx context.Context) ([]models.Student, error)
	GetStudentsByClassID(ctx context.Context, classID string) ([]models.Student, error)
	// DeleteStudent reports whether the student existed.
	DeleteStudent(ctx context.Context, studentID string) (bool, error)

	// IsEmpty reports whether no classes have been stored yet.
	IsEmpty(ctx context.Context) (bool, error)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
