package seeds

import (
	"log"

	"gorm.io/gorm"

	"admissions_backend/internals/seeds/courses"
)

func RunAllSeeds(db *gorm.DB) {
	//* Courses
	if _, err := courses.SeedCoursesFromJSON(db, courses.DefaultCatalogue); err != nil {
		log.Printf("[SEED] courses failed: %v", err)
	}
}
