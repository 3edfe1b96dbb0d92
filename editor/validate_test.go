package editor

import (
	"reflect"
	"testing"

	"student-records/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		values Values
		want   ErrorMap
	}{
		{
			name:   "everything missing",
			values: Values{},
			want: ErrorMap{
				models.FieldName:   models.MsgNameRequired,
				models.FieldClass:  models.MsgClassRequired,
				models.FieldCourse: models.MsgCourseRequired,
			},
		},
		{
			name:   "whitespace name",
			values: Values{Name: " \t\n", ClassID: "CL1", Courses: []string{"C1"}},
			want:   ErrorMap{models.FieldName: models.MsgNameRequired},
		},
		{
			name:   "no class",
			values: Values{Name: "Ada", Courses: []string{"C1"}},
			want:   ErrorMap{models.FieldClass: models.MsgClassRequired},
		},
		{
			name:   "no courses",
			values: Values{Name: "Ada", ClassID: "CL1", Courses: []string{}},
			want:   ErrorMap{models.FieldCourse: models.MsgCourseRequired},
		},
		{
			name:   "valid with one course",
			values: Values{Name: "Ada", ClassID: "CL1", Courses: []string{"C1"}},
			want:   ErrorMap{},
		},
		{
			name:   "contact number is not checked",
			values: Values{Name: "Ada", ContactNumber: "not a number", ClassID: "CL1", Courses: []string{"C1", "C2"}},
			want:   ErrorMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
			if got.Valid() != (len(tt.want) == 0) {
				t.Errorf("Valid() = %v", got.Valid())
			}
		})
	}
}

func TestValidateNameRule(t *testing.T) {
	for _, name := range []string{"", " ", "   ", "\t"} {
		if !Validate(Values{Name: name}).Has(models.FieldName) {
			t.Errorf("name %q: expected name error", name)
		}
	}
	for _, name := range []string{"A", " Ada ", "Ada Lovelace"} {
		if Validate(Values{Name: name}).Has(models.FieldName) {
			t.Errorf("name %q: unexpected name error", name)
		}
	}
}

func TestValidateCourseRule(t *testing.T) {
	for n := 0; n < 4; n++ {
		courses := make([]string, n)
		for i := range courses {
			courses[i] = string(rune('A' + i))
		}
		got := Validate(Values{Courses: courses}).Has(models.FieldCourse)
		if got != (n == 0) {
			t.Errorf("%d courses: course error = %v", n, got)
		}
	}
}
