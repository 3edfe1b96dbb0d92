package models

// Field keys used in error maps, shared by the API and the edit form.
const (
	FieldName   = "name"
	FieldClass  = "class"
	FieldCourse = "course"
)

// User-facing validation messages.
const (
	MsgNameRequired   = "Please enter the student's name."
	MsgClassRequired  = "Please select a class."
	MsgCourseRequired = "Please select at least one course."
	MsgCourseAdded    = "This course is already added."
)
