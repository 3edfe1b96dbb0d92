package models

import "strings"

// Clazz represents a class
type Clazz struct {
	ID   string `json:"id"`   // Unique class ID
	Name string `json:"name"` // Class name
}

// Course represents a course in the catalogue
type Course struct {
	ID   string `json:"id"`   // Unique course ID
	Name string `json:"name"` // Course label
}

// Student represents a student record
type Student struct {
	ID            string   // Unique student ID
	Name          string   // Display name
	ContactNumber string   // Free-form, not validated
	ClassID       string   // ID of the class the student belongs to
	MarkedCourses []string // Ordered course IDs, no duplicates
}

// Option is the {Value, Text} pair used for catalogue lists on the wire.
type Option struct {
	Value string `json:"Value"`
	Text  string `json:"Text"`
}

// ClassOption converts a class into a catalogue option.
func ClassOption(c Clazz) Option {
	return Option{Value: c.ID, Text: c.Name}
}

// CourseOption converts a course into a catalogue option.
func CourseOption(c Course) Option {
	return Option{Value: c.ID, Text: c.Name}
}

// StudentDetail is the response body of GET /api/getStudent/{id}.
type StudentDetail struct {
	Id            string   `json:"Id"`
	Name          string   `json:"Name"`
	ContactNumber string   `json:"ContactNumber"`
	ClassId       string   `json:"ClassId"`
	MarkedCourses []string `json:"MarkedCourses"`
}

// Detail shapes a student for the wire. MarkedCourses is never null.
func (s Student) Detail() StudentDetail {
	courses := s.MarkedCourses
	if courses == nil {
		courses = []string{}
	}
	return StudentDetail{
		Id:            s.ID,
		Name:          s.Name,
		ContactNumber: s.ContactNumber,
		ClassId:       s.ClassID,
		MarkedCourses: courses,
	}
}

// StudentPayload is the "student" object inside a create/edit request.
type StudentPayload struct {
	Id            string `json:"Id"`
	Name          string `json:"Name" binding:"required"`
	ContactNumber string `json:"ContactNumber"`
	Class         string `json:"Class" binding:"required"`
}

// StudentRequest is the body of POST /api/create and PUT /api/edit/{id}.
type StudentRequest struct {
	Student       StudentPayload `json:"student"`
	MarkedCourses []string       `json:"MarkedCourses" binding:"required,min=1,dive,required"`
}

// ToStudent builds the stored record for the given id. Names are trimmed.
func (r StudentRequest) ToStudent(id string) Student {
	courses := make([]string, len(r.MarkedCourses))
	copy(courses, r.MarkedCourses)
	return Student{
		ID:            id,
		Name:          strings.TrimSpace(r.Student.Name),
		ContactNumber: r.Student.ContactNumber,
		ClassID:       r.Student.Class,
		MarkedCourses: courses,
	}
}
