package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/go-redis/redis/v8"
	"student-records/models"
)

// Each key type has its own prefix and the id is always the last segment,
// so an id containing ':' can never name another entity's key.
const (
	classesKey           = "classes"          // Set: Stores all class IDs
	classInfoPrefix      = "class:info:"      // Hash prefix: class:info:{id} -> stores class details
	classStudentsPrefix  = "class:students:"  // Set prefix: class:students:{id} -> stores student IDs for a class
	coursesKey           = "courses"          // Set: Stores all course IDs
	courseInfoPrefix     = "course:info:"     // Hash prefix: course:info:{id} -> stores course details
	studentsKey          = "students"         // Set: Stores all student IDs
	studentInfoPrefix    = "student:info:"    // Hash prefix: student:info:{id} -> stores student details
	studentCoursesPrefix = "student:courses:" // List prefix: student:courses:{id} -> ordered marked course IDs
)

// RedisService handles operations with the Redis database
type RedisService struct {
	Client *redis.Client
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{Client: client}
}

func getClassInfoKey(classID string) string {
	return classInfoPrefix + classID
}

func getClassStudentsKey(classID string) string {
	return classStudentsPrefix + classID
}

func getCourseInfoKey(courseID string) string {
	return courseInfoPrefix + courseID
}

func getStudentInfoKey(studentID string) string {
	return studentInfoPrefix + studentID
}

func getStudentCoursesKey(studentID string) string {
	return studentCoursesPrefix + studentID
}

// --- Class Operations ---

// AddClass adds a new class or renames an existing one
func (s *RedisService) AddClass(ctx context.Context, clazz models.Clazz) error {
	if clazz.ID == "" || clazz.Name == "" {
		return errors.New("class ID and Name cannot be empty")
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, classesKey, clazz.ID)
		pipe.HSet(ctx, getClassInfoKey(clazz.ID), map[string]interface{}{
			"id":   clazz.ID,
			"name": clazz.Name,
		})
		return nil
	})
	if err != nil {
		log.Printf("Error adding class %s: %v", clazz.ID, err)
		return fmt.Errorf("failed to add class to Redis: %w", err)
	}
	log.Printf("Added class: %s (%s)", clazz.Name, clazz.ID)
	return nil
}

// GetClassByID retrieves a class by its ID
func (s *RedisService) GetClassByID(ctx context.Context, classID string) (*models.Clazz, error) {
	data, err := s.Client.HGetAll(ctx, getClassInfoKey(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get class from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &models.Clazz{ID: data["id"], Name: data["name"]}, nil
}

// GetAllClasses retrieves all classes ordered by name
func (s *RedisService) GetAllClasses(ctx context.Context) ([]models.Clazz, error) {
	classIDs, err := s.members(ctx, classesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get class IDs from Redis: %w", err)
	}

	classes := make([]models.Clazz, 0, len(classIDs))
	for _, id := range classIDs {
		clazz, err := s.GetClassByID(ctx, id)
		if err != nil {
			// Log the error but continue trying to fetch others
			log.Printf("Error fetching details for class %s: %v", id, err)
			continue
		}
		if clazz != nil {
			classes = append(classes, *clazz)
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Name != classes[j].Name {
			return classes[i].Name < classes[j].Name
		}
		return classes[i].ID < classes[j].ID
	})
	return classes, nil
}

// ClassExists checks if a class ID exists in the classes set
func (s *RedisService) ClassExists(ctx context.Context, classID string) (bool, error) {
	exists, err := s.Client.SIsMember(ctx, classesKey, classID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check class existence: %w", err)
	}
	return exists, nil
}

// --- Course Operations ---

// AddCourse adds a new course or renames an existing one
func (s *RedisService) AddCourse(ctx context.Context, course models.Course) error {
	if course.ID == "" || course.Name == "" {
		return errors.New("course ID and Name cannot be empty")
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, coursesKey, course.ID)
		pipe.HSet(ctx, getCourseInfoKey(course.ID), map[string]interface{}{
			"id":   course.ID,
			"name": course.Name,
		})
		return nil
	})
	if err != nil {
		log.Printf("Error adding course %s: %v", course.ID, err)
		return fmt.Errorf("failed to add course to Redis: %w", err)
	}
	log.Printf("Added course: %s (%s)", course.Name, course.ID)
	return nil
}

// GetCourseByID retrieves a course by its ID
func (s *RedisService) GetCourseByID(ctx context.Context, courseID string) (*models.Course, error) {
	data, err := s.Client.HGetAll(ctx, getCourseInfoKey(courseID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &models.Course{ID: data["id"], Name: data["name"]}, nil
}

// GetAllCourses retrieves all courses ordered by name
func (s *RedisService) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	courseIDs, err := s.members(ctx, coursesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get course IDs from Redis: %w", err)
	}

	courses := make([]models.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		course, err := s.GetCourseByID(ctx, id)
		if err != nil {
			log.Printf("Error fetching details for course %s: %v", id, err)
			continue
		}
		if course != nil {
			courses = append(courses, *course)
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

// CourseExists checks if a course ID exists in the courses set
func (s *RedisService) CourseExists(ctx context.Context, courseID string) (bool, error) {
	exists, err := s.Client.SIsMember(ctx, coursesKey, courseID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}
	return exists, nil
}

// --- Student Operations ---

// SaveStudent creates or replaces a student, keeping the class roster sets in sync
func (s *RedisService) SaveStudent(ctx context.Context, student models.Student) error {
	if student.ID == "" || student.Name == "" || student.ClassID == "" {
		return errors.New("student ID, Name, and ClassID cannot be empty")
	}

	previous, err := s.GetStudentByID(ctx, student.ID)
	if err != nil {
		return err
	}

	courses := dedupe(student.MarkedCourses)
	listKey := getStudentCoursesKey(student.ID)

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, studentsKey, student.ID)
		pipe.HSet(ctx, getStudentInfoKey(student.ID), map[string]interface{}{
			"id":            student.ID,
			"name":          student.Name,
			"contactNumber": student.ContactNumber,
			"classId":       student.ClassID,
		})
		pipe.Del(ctx, listKey)
		if len(courses) > 0 {
			values := make([]interface{}, len(courses))
			for i, id := range courses {
				values[i] = id
			}
			pipe.RPush(ctx, listKey, values...)
		}
		if previous != nil && previous.ClassID != student.ClassID {
			pipe.SRem(ctx, getClassStudentsKey(previous.ClassID), student.ID)
		}
		pipe.SAdd(ctx, getClassStudentsKey(student.ClassID), student.ID)
		return nil
	})
	if err != nil {
		log.Printf("Error saving student %s to class %s: %v", student.ID, student.ClassID, err)
		return fmt.Errorf("failed to save student to Redis: %w", err)
	}
	return nil
}

// GetStudentByID retrieves a student and their marked courses
func (s *RedisService) GetStudentByID(ctx context.Context, studentID string) (*models.Student, error) {
	data, err := s.Client.HGetAll(ctx, getStudentInfoKey(studentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	courses, err := s.Client.LRange(ctx, getStudentCoursesKey(studentID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get marked courses from Redis: %w", err)
	}

	return &models.Student{
		ID:            data["id"],
		Name:          data["name"],
		ContactNumber: data["contactNumber"],
		ClassID:       data["classId"],
		MarkedCourses: courses,
	}, nil
}

// GetAllStudents retrieves every student ordered by name
func (s *RedisService) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	studentIDs, err := s.members(ctx, studentsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get student IDs from Redis: %w", err)
	}
	return s.loadStudents(ctx, studentIDs), nil
}

// GetStudentsByClassID retrieves all students for a given class ID
func (s *RedisService) GetStudentsByClassID(ctx context.Context, classID string) ([]models.Student, error) {
	studentIDs, err := s.members(ctx, getClassStudentsKey(classID))
	if err != nil {
		return nil, fmt.Errorf("failed to get student IDs from Redis for class %s: %w", classID, err)
	}
	return s.loadStudents(ctx, studentIDs), nil
}

// DeleteStudent removes a student, their course list and roster membership
func (s *RedisService) DeleteStudent(ctx context.Context, studentID string) (bool, error) {
	student, err := s.GetStudentByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	if student == nil {
		return false, nil
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, studentsKey, studentID)
		pipe.SRem(ctx, getClassStudentsKey(student.ClassID), studentID)
		pipe.Del(ctx, getStudentInfoKey(studentID), getStudentCoursesKey(studentID))
		return nil
	})
	if err != nil {
		log.Printf("Error deleting student %s: %v", studentID, err)
		return false, fmt.Errorf("failed to delete student from Redis: %w", err)
	}
	log.Printf("Deleted student: %s (%s)", student.Name, studentID)
	return true, nil
}

// IsEmpty reports whether the classes set is empty or missing
func (s *RedisService) IsEmpty(ctx context.Context) (bool, error) {
	count, err := s.Client.SCard(ctx, classesKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to count classes: %w", err)
	}
	return count == 0, nil
}

// --- Utility ---

func (s *RedisService) members(ctx context.Context, key string) ([]string, error) {
	ids, err := s.Client.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return ids, nil
}

func (s *RedisService) loadStudents(ctx context.Context, studentIDs []string) []models.Student {
	students := make([]models.Student, 0, len(studentIDs))
	for _, id := range studentIDs {
		student, err := s.GetStudentByID(ctx, id)
		if err != nil {
			log.Printf("Error fetching details for student %s: %v", id, err)
			continue // Skip this student if details can't be fetched
		}
		if student != nil {
			students = append(students, *student)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	log.Printf("Successfully connected to Redis %s DB %d", addr, db)
	return rdb, nil
}
