package editor

import (
	"errors"
	"fmt"
	"strings"

	"student-records/models"
)

// Source names one of the three initial reads.
type Source string

const (
	SourceStudent Source = "student"
	SourceCourses Source = "courses"
	SourceClasses Source = "classes"
)

// FetchError is the collapsed failure of the initial reads. Sources lists every
// read that failed, in the order the failures arrived.
type FetchError struct {
	Sources []Source
	Err     error
}

func (e *FetchError) Error() string {
	names := make([]string, len(e.Sources))
	for i, s := range e.Sources {
		names[i] = string(s)
	}
	return fmt.Sprintf("failed to fetch data (%s): %v", strings.Join(names, ", "), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Failed reports whether the given read failed.
func (e *FetchError) Failed(src Source) bool {
	for _, s := range e.Sources {
		if s == src {
			return true
		}
	}
	return false
}

func (e *FetchError) add(src Source, err error) {
	e.Sources = append(e.Sources, src)
	e.Err = errors.Join(e.Err, fmt.Errorf("%s: %w", src, err))
}

// Form is the editable state of one edit session. Setters never validate.
type Form struct {
	Name          string
	ContactNumber string
	ClassID       string
	Courses       Selection
	Errors        ErrorMap

	// PendingCourse is the catalogue option currently chosen in the course
	// picker but not yet added to Courses.
	PendingCourse string

	CourseCatalog []models.Option
	ClassCatalog  []models.Option

	FetchErr *FetchError
}

// Values extracts what Validate needs.
func (f *Form) Values() Values {
	return Values{
		Name:          f.Name,
		ContactNumber: f.ContactNumber,
		ClassID:       f.ClassID,
		Courses:       f.Courses.IDs(),
	}
}

// Payload shapes the form into the PUT /api/edit/{id} body.
func (f *Form) Payload(id string) models.StudentRequest {
	return models.StudentRequest{
		Student: models.StudentPayload{
			Id:            id,
			Name:          f.Name,
			ContactNumber: f.ContactNumber,
			Class:         f.ClassID,
		},
		MarkedCourses: f.Courses.IDs(),
	}
}

// Reset clears the editable fields and errors. Catalogues and the fetch error stay.
func (f *Form) Reset() {
	f.Name = ""
	f.ContactNumber = ""
	f.ClassID = ""
	f.Courses = Selection{}
	f.PendingCourse = ""
	f.Errors = ErrorMap{}
}

// CourseLabel returns the catalogue text for a course id, or "" if unknown.
func (f *Form) CourseLabel(id string) string {
	for _, o := range f.CourseCatalog {
		if o.Value == id {
			return o.Text
		}
	}
	return ""
}

// ClassLabel returns the catalogue text for a class id, or "" if unknown.
func (f *Form) ClassLabel(id string) string {
	for _, o := range f.ClassCatalog {
		if o.Value == id {
			return o.Text
		}
	}
	return ""
}

func (f Form) clone() Form {
	out := f
	out.Courses = Selection{entries: f.Courses.Entries()}
	out.Errors = make(ErrorMap, len(f.Errors))
	for k, v := range f.Errors {
		out.Errors[k] = v
	}
	out.CourseCatalog = append([]models.Option(nil), f.CourseCatalog...)
	out.ClassCatalog = append([]models.Option(nil), f.ClassCatalog...)
	if f.FetchErr != nil {
		fe := *f.FetchErr
		fe.Sources = append([]Source(nil), f.FetchErr.Sources...)
		out.FetchErr = &fe
	}
	return out
}
