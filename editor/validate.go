package editor

import (
	"strings"

	"student-records/models"
)

// ErrorMap maps a field key (models.FieldName, FieldClass, FieldCourse) to a message.
// A missing key means the field is fine.
type ErrorMap map[string]string

func (m ErrorMap) Valid() bool { return len(m) == 0 }

func (m ErrorMap) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Values is the part of the form the validator looks at.
type Values struct {
	Name          string
	ContactNumber string
	ClassID       string
	Courses       []string
}

// Validate checks every rule and returns all failures. Contact number is not checked.
func Validate(v Values) ErrorMap {
	errs := ErrorMap{}
	if strings.TrimSpace(v.Name) == "" {
		errs[models.FieldName] = models.MsgNameRequired
	}
	if v.ClassID == "" {
		errs[models.FieldClass] = models.MsgClassRequired
	}
	if len(v.Courses) == 0 {
		errs[models.FieldCourse] = models.MsgCourseRequired
	}
	return errs
}
