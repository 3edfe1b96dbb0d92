package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"student-records/models"
)

type classRecord struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"not null"`
}

func (classRecord) TableName() string { return "classes" }

type courseRecord struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"not null"`
}

func (courseRecord) TableName() string { return "courses" }

type studentRecord struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"not null"`
	ContactNumber string
	ClassID       string `gorm:"size:64;index;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (studentRecord) TableName() string { return "students" }

// markedCourseRecord links a student to a course; Position keeps the selection order.
type markedCourseRecord struct {
	StudentID string `gorm:"primaryKey;size:64"`
	CourseID  string `gorm:"primaryKey;size:64"`
	Position  int    `gorm:"not null"`
}

func (markedCourseRecord) TableName() string { return "student_courses" }

// GormStore keeps records in a relational database through gorm.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore migrates the schema and returns a store over db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&classRecord{}, &courseRecord{}, &studentRecord{}, &markedCourseRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{DB: db}, nil
}

// OpenPostgres connects to PostgreSQL with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Println("Database connection established")
	return db, nil
}

// --- Class Operations ---

// AddClass adds a new class or renames an existing one
func (s *GormStore) AddClass(ctx context.Context, clazz models.Clazz) error {
	if clazz.ID == "" || clazz.Name == "" {
		return errors.New("class ID and Name cannot be empty")
	}
	rec := classRecord{ID: clazz.ID, Name: clazz.Name}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to add class: %w", err)
	}
	log.Printf("Added class: %s (%s)", clazz.Name, clazz.ID)
	return nil
}

// GetClassByID retrieves a class by its ID
func (s *GormStore) GetClassByID(ctx context.Context, classID string) (*models.Clazz, error) {
	var rec classRecord
	if err := s.DB.WithContext(ctx).First(&rec, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return &models.Clazz{ID: rec.ID, Name: rec.Name}, nil
}

// GetAllClasses retrieves all classes ordered by name
func (s *GormStore) GetAllClasses(ctx context.Context) ([]models.Clazz, error) {
	var recs []classRecord
	if err := s.DB.WithContext(ctx).Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	classes := make([]models.Clazz, 0, len(recs))
	for _, rec := range recs {
		classes = append(classes, models.Clazz{ID: rec.ID, Name: rec.Name})
	}
	return classes, nil
}

// ClassExists checks if a class row exists
func (s *GormStore) ClassExists(ctx context.Context, classID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&classRecord{}).Where("id = ?", classID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check class existence: %w", err)
	}
	return count > 0, nil
}

// --- Course Operations ---

// AddCourse adds a new course or renames an existing one
func (s *GormStore) AddCourse(ctx context.Context, course models.Course) error {
	if course.ID == "" || course.Name == "" {
		return errors.New("course ID and Name cannot be empty")
	}
	rec := courseRecord{ID: course.ID, Name: course.Name}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to add course: %w", err)
	}
	log.Printf("Added course: %s (%s)", course.Name, course.ID)
	return nil
}

// GetCourseByID retrieves a course by its ID
func (s *GormStore) GetCourseByID(ctx context.Context, courseID string) (*models.Course, error) {
	var rec courseRecord
	if err := s.DB.WithContext(ctx).First(&rec, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &models.Course{ID: rec.ID, Name: rec.Name}, nil
}

// GetAllCourses retrieves all courses ordered by name
func (s *GormStore) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	var recs []courseRecord
	if err := s.DB.WithContext(ctx).Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	courses := make([]models.Course, 0, len(recs))
	for _, rec := range recs {
		courses = append(courses, models.Course{ID: rec.ID, Name: rec.Name})
	}
	return courses, nil
}

// CourseExists checks if a course row exists
func (s *GormStore) CourseExists(ctx context.Context, courseID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&courseRecord{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}
	return count > 0, nil
}

// --- Student Operations ---

// SaveStudent upserts the student row and rewrites its marked courses in one transaction.
func (s *GormStore) SaveStudent(ctx context.Context, student models.Student) error {
	if student.ID == "" || student.Name == "" || student.ClassID == "" {
		return errors.New("student ID, Name, and ClassID cannot be empty")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := studentRecord{
			ID:            student.ID,
			Name:          student.Name,
			ContactNumber: student.ContactNumber,
			ClassID:       student.ClassID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "contact_number", "class_id", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", student.ID).Delete(&markedCourseRecord{}).Error; err != nil {
			return err
		}
		courses := dedupe(student.MarkedCourses)
		if len(courses) == 0 {
			return nil
		}
		links := make([]markedCourseRecord, len(courses))
		for i, id := range courses {
			links[i] = markedCourseRecord{StudentID: student.ID, CourseID: id, Position: i}
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		log.Printf("Error saving student %s to class %s: %v", student.ID, student.ClassID, err)
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// GetStudentByID retrieves a student with their marked courses
func (s *GormStore) GetStudentByID(ctx context.Context, studentID string) (*models.Student, error) {
	var rec studentRecord
	if err := s.DB.WithContext(ctx).First(&rec, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	students, err := s.withCourses(ctx, []studentRecord{rec})
	if err != nil {
		return nil, err
	}
	return &students[0], nil
}

// GetAllStudents retrieves all students ordered by name
func (s *GormStore) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	var recs []studentRecord
	if err := s.DB.WithContext(ctx).Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return s.withCourses(ctx, recs)
}

// GetStudentsByClassID retrieves all students of a class
func (s *GormStore) GetStudentsByClassID(ctx context.Context, classID string) ([]models.Student, error) {
	var recs []studentRecord
	if err := s.DB.WithContext(ctx).Where("class_id = ?", classID).Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list students for class %s: %w", classID, err)
	}
	return s.withCourses(ctx, recs)
}

// DeleteStudent removes a student and their marked courses
func (s *GormStore) DeleteStudent(ctx context.Context, studentID string) (bool, error) {
	var deleted int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&markedCourseRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", studentID).Delete(&studentRecord{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete student: %w", err)
	}
	if deleted > 0 {
		log.Printf("Deleted student: %s", studentID)
	}
	return deleted > 0, nil
}

// IsEmpty reports whether the classes table has no rows
func (s *GormStore) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&classRecord{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count classes: %w", err)
	}
	return count == 0, nil
}

// withCourses loads marked courses for recs with a single query.
func (s *GormStore) withCourses(ctx context.Context, recs []studentRecord) ([]models.Student, error) {
	students := make([]models.Student, 0, len(recs))
	if len(recs) == 0 {
		return students, nil
	}

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	var links []markedCourseRecord
	if err := s.DB.WithContext(ctx).Where("student_id IN ?", ids).Order("student_id, position").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load marked courses: %w", err)
	}
	byStudent := make(map[string][]string, len(recs))
	for _, link := range links {
		byStudent[link.StudentID] = append(byStudent[link.StudentID], link.CourseID)
	}

	for _, rec := range recs {
		courses := byStudent[rec.ID]
		if courses == nil {
			courses = []string{}
		}
		students = append(students, models.Student{
			ID:            rec.ID,
			Name:          rec.Name,
			ContactNumber: rec.ContactNumber,
			ClassID:       rec.ClassID,
			MarkedCourses: courses,
		})
	}
	return students, nil
}
