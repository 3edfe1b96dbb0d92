package db

import (
	"context"
	"log"

	"student-records/models"
)

// SeedIfEmpty adds demo data when the store has no classes yet.
func SeedIfEmpty(ctx context.Context, store Store) error {
	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		log.Println("Existing class data found, skipping demo data")
		return nil
	}
	log.Println("No class data found, adding demo data...")
	Seed(ctx, store)
	return nil
}

// Seed adds a small catalogue and a few students. Errors are logged, not returned.
func Seed(ctx context.Context, store Store) {
	classes := []models.Clazz{
		{ID: "CL1", Name: "Grade 10 - A"},
		{ID: "CL2", Name: "Grade 10 - B"},
	}
	for _, c := range classes {
		if err := store.AddClass(ctx, c); err != nil {
			log.Printf("Error adding demo class %s: %v", c.ID, err)
		}
	}

	courses := []models.Course{
		{ID: "C1", Name: "Mathematics"},
		{ID: "C2", Name: "Physics"},
		{ID: "C3", Name: "Chemistry"},
		{ID: "C4", Name: "English Literature"},
	}
	for _, c := range courses {
		if err := store.AddCourse(ctx, c); err != nil {
			log.Printf("Error adding demo course %s: %v", c.ID, err)
		}
	}

	students := []models.Student{
		{ID: "S001", Name: "Ada Lovelace", ContactNumber: "555-0100", ClassID: "CL1", MarkedCourses: []string{"C1", "C2"}},
		{ID: "S002", Name: "Alan Turing", ContactNumber: "555-0101", ClassID: "CL1", MarkedCourses: []string{"C1"}},
		{ID: "S003", Name: "Grace Hopper", ContactNumber: "555-0102", ClassID: "CL2", MarkedCourses: []string{"C3", "C4"}},
	}
	for _, s := range students {
		if err := store.SaveStudent(ctx, s); err != nil {
			log.Printf("Error adding demo student %s: %v", s.ID, err)
		}
	}

	log.Println("Demo data added.")
}
