package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"student-records/models"
)

// ImportResult summarises a spreadsheet import.
type ImportResult struct {
	Imported int
	Skipped  int
	Rejected []RejectedRow
}

// RejectedRow is a parsed row that was not stored and why.
type RejectedRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ParseStudentsFromExcel reads student rows from the first sheet of a workbook.
// Columns: A = student ID (optional), B = name, C = contact number,
// D = comma separated course IDs. Row 1 is a header.
func ParseStudentsFromExcel(file io.Reader, classID string) ([]models.Student, int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	var students []models.Student
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}

		cell := func(n int) string {
			if len(row) > n {
				return strings.TrimSpace(row[n])
			}
			return ""
		}

		studentID, studentName := cell(0), cell(1)
		if studentName == "" {
			log.Printf("Skipping row %d due to missing Name (ID: '%s')", i+1, studentID)
			skipped++
			continue
		}
		if studentID == "" {
			studentID = uuid.NewString()
		}

		var courses []string
		for _, id := range strings.Split(cell(3), ",") {
			if id = strings.TrimSpace(id); id != "" {
				courses = append(courses, id)
			}
		}

		students = append(students, models.Student{
			ID:            studentID,
			Name:          studentName,
			ContactNumber: cell(2),
			ClassID:       classID,
			MarkedCourses: dedupe(courses),
		})
	}
	return students, skipped, nil
}

// ImportStudentsFromExcel adds the students of a workbook to classID, creating the class if needed.
// Rows without courses, with unknown courses, or whose ID is already taken are
// skipped and listed in Rejected.
func ImportStudentsFromExcel(ctx context.Context, store Store, file io.Reader, classID string) (ImportResult, error) {
	var result ImportResult

	students, skipped, err := ParseStudentsFromExcel(file, classID)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	exists, err := store.ClassExists(ctx, classID)
	if err != nil {
		return result, fmt.Errorf("failed to check class existence before import: %w", err)
	}
	if !exists {
		log.Printf("Import target class %s does not exist. Creating it.", classID)
		if err := store.AddClass(ctx, models.Clazz{ID: classID, Name: "Imported Class " + classID}); err != nil {
			return result, fmt.Errorf("target class %s does not exist and failed to create it: %w", classID, err)
		}
	}

	log.Printf("Attempting to add %d students from Excel file to class %s", len(students), classID)
	for _, student := range students {
		reason, err := checkImportRow(ctx, store, student)
		if err != nil {
			return result, fmt.Errorf("failed to check student %s during import: %w", student.ID, err)
		}
		if reason == "" {
			if err := store.SaveStudent(ctx, student); err != nil {
				log.Printf("Error adding student %s (%s) during import: %v", student.Name, student.ID, err)
				reason = "Failed to save student"
			}
		}
		if reason != "" {
			log.Printf("Skipping student %s (%s) during import: %s", student.Name, student.ID, reason)
			result.Skipped++
			result.Rejected = append(result.Rejected, RejectedRow{ID: student.ID, Name: student.Name, Reason: reason})
			continue
		}
		result.Imported++
	}

	log.Printf("Successfully imported %d students into class %s", result.Imported, classID)
	return result, nil
}

// checkImportRow applies the rules an edit must pass, and refuses to overwrite
// an existing student. It returns "" when the row can be stored.
func checkImportRow(ctx context.Context, store Store, student models.Student) (string, error) {
	if len(student.MarkedCourses) == 0 {
		return models.MsgCourseRequired, nil
	}
	existing, err := store.GetStudentByID(ctx, student.ID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "Student already exists: " + student.ID, nil
	}
	for _, courseID := range student.MarkedCourses {
		ok, err := store.CourseExists(ctx, courseID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "Unknown course: " + courseID, nil
		}
	}
	return "", nil
}
