package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"student-records/db"
	"student-records/models"
)

// APIHandler holds the dependencies for API handlers, like the record store
type APIHandler struct {
	Store db.Store
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store) *APIHandler {
	return &APIHandler{Store: store}
}

// --- Class Handlers ---

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	classes, err := h.Store.GetAllClasses(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetAllClasses handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve classes"})
		return
	}
	options := make([]models.Option, 0, len(classes))
	for _, clazz := range classes {
		options = append(options, models.ClassOption(clazz))
	}
	c.JSON(http.StatusOK, sortOptions(options))
}

// AddClass handles POST /api/classes
func (h *APIHandler) AddClass(c *gin.Context) {
	var newClass models.Clazz
	if err := c.ShouldBindJSON(&newClass); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if newClass.ID == "" || newClass.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Class ID and Name are required"})
		return
	}

	if err := h.Store.AddClass(c.Request.Context(), newClass); err != nil {
		log.Printf("Error in AddClass handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add class"})
		return
	}
	c.JSON(http.StatusCreated, models.ClassOption(newClass))
}

// GetStudentsByClass handles GET /api/classes/:classId/students
func (h *APIHandler) GetStudentsByClass(c *gin.Context) {
	classID := c.Param("classId")
	ctx := c.Request.Context()

	exists, err := h.Store.ClassExists(ctx, classID)
	if err != nil {
		log.Printf("Error checking class existence in GetStudentsByClass handler for ID %s: %v", classID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify class"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	students, err := h.Store.GetStudentsByClassID(ctx, classID)
	if err != nil {
		log.Printf("Error in GetStudentsByClass handler for ID %s: %v", classID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve students for the class"})
		return
	}
	c.JSON(http.StatusOK, details(students))
}

// --- Course Handlers ---

// GetAllCourses handles GET /api/courses
func (h *APIHandler) GetAllCourses(c *gin.Context) {
	courses, err := h.Store.GetAllCourses(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetAllCourses handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve courses"})
		return
	}
	options := make([]models.Option, 0, len(courses))
	for _, course := range courses {
		options = append(options, models.CourseOption(course))
	}
	c.JSON(http.StatusOK, sortOptions(options))
}

// AddCourse handles POST /api/courses
func (h *APIHandler) AddCourse(c *gin.Context) {
	var newCourse models.Course
	if err := c.ShouldBindJSON(&newCourse); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if newCourse.ID == "" || newCourse.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course ID and Name are required"})
		return
	}

	if err := h.Store.AddCourse(c.Request.Context(), newCourse); err != nil {
		log.Printf("Error in AddCourse handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add course"})
		return
	}
	c.JSON(http.StatusCreated, models.CourseOption(newCourse))
}

// --- Student Handlers ---

// GetAllStudents handles GET /api/students
func (h *APIHandler) GetAllStudents(c *gin.Context) {
	students, err := h.Store.GetAllStudents(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetAllStudents handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve students"})
		return
	}
	c.JSON(http.StatusOK, details(students))
}

// GetStudent handles GET /api/getStudent/:id
func (h *APIHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")
	student, err := h.Store.GetStudentByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error in GetStudent handler for ID %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve student"})
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, student.Detail())
}

// CreateStudent handles POST /api/create
func (h *APIHandler) CreateStudent(c *gin.Context) {
	req, ok := h.bindStudentRequest(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	id := strings.TrimSpace(req.Student.Id)
	if id == "" {
		id = uuid.NewString()
	} else {
		existing, err := h.Store.GetStudentByID(ctx, id)
		if err != nil {
			log.Printf("Error in CreateStudent handler for ID %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create student"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Student already exists"})
			return
		}
	}

	h.saveStudent(c, req.ToStudent(id), http.StatusCreated)
}

// UpdateStudent handles PUT /api/edit/:id
func (h *APIHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	req, ok := h.bindStudentRequest(c)
	if !ok {
		return
	}
	if req.Student.Id != "" && req.Student.Id != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student ID in body does not match the URL"})
		return
	}

	existing, err := h.Store.GetStudentByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error in UpdateStudent handler for ID %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	h.saveStudent(c, req.ToStudent(id), http.StatusOK)
}

// DeleteStudent handles DELETE /api/delete/:id
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	existed, err := h.Store.DeleteStudent(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error in DeleteStudent handler for ID %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student"})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted", "id": id})
}

// --- Import Handler ---

// ImportStudents handles POST /api/import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	classID := c.PostForm("classId")
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'classId' in form data"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Printf("Received file upload: %s for class: %s", header.Filename, classID)

	result, err := db.ImportStudentsFromExcel(c.Request.Context(), h.Store, file, classID)
	if err != nil {
		log.Printf("Error importing students from file %s for class %s: %v", header.Filename, classID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import students: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": result.Imported,
		"skippedCount":  result.Skipped,
		"rejected":      result.Rejected,
		"classId":       classID,
	})
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// --- Helpers ---

// bindStudentRequest decodes and validates a create/edit body, writing a 400 on failure.
func (h *APIHandler) bindStudentRequest(c *gin.Context) (models.StudentRequest, bool) {
	var req models.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": bindingFieldErrors(verrs)})
			return req, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return req, false
	}

	fields, err := h.checkReferences(c, req)
	if err != nil {
		log.Printf("Error validating student request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate student"})
		return req, false
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return req, false
	}
	return req, true
}

// checkReferences applies the rules binding tags cannot express: trimmed name,
// known class, known and distinct courses.
func (h *APIHandler) checkReferences(c *gin.Context, req models.StudentRequest) (map[string]string, error) {
	ctx := c.Request.Context()
	fields := map[string]string{}

	if strings.TrimSpace(req.Student.Name) == "" {
		fields[models.FieldName] = models.MsgNameRequired
	}

	exists, err := h.Store.ClassExists(ctx, req.Student.Class)
	if err != nil {
		return nil, err
	}
	if !exists {
		fields[models.FieldClass] = "Unknown class: " + req.Student.Class
	}

	seen := make(map[string]bool, len(req.MarkedCourses))
	for _, courseID := range req.MarkedCourses {
		if seen[courseID] {
			fields[models.FieldCourse] = "Duplicate course: " + courseID
			break
		}
		seen[courseID] = true
		exists, err := h.Store.CourseExists(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if !exists {
			fields[models.FieldCourse] = "Unknown course: " + courseID
			break
		}
	}
	return fields, nil
}

func (h *APIHandler) saveStudent(c *gin.Context, student models.Student, status int) {
	if err := h.Store.SaveStudent(c.Request.Context(), student); err != nil {
		log.Printf("Error saving student %s: %v", student.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save student"})
		return
	}
	c.JSON(status, student.Detail())
}

func bindingFieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := map[string]string{}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Name":
			fields[models.FieldName] = models.MsgNameRequired
		case "Class":
			fields[models.FieldClass] = models.MsgClassRequired
		default:
			if strings.HasPrefix(fe.Field(), "MarkedCourses") {
				fields[models.FieldCourse] = models.MsgCourseRequired
			} else {
				fields[strings.ToLower(fe.Field())] = fe.Error()
			}
		}
	}
	return fields
}

func details(students []models.Student) []models.StudentDetail {
	out := make([]models.StudentDetail, 0, len(students))
	for _, s := range students {
		out = append(out, s.Detail())
	}
	return out
}

func sortOptions(options []models.Option) []models.Option {
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Text < options[j].Text
	})
	return options
}
