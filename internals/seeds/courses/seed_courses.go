package courses

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"admissions_backend/internals/features/academics/courses/model"
)

//go:embed data_courses.json
var DefaultCatalogue []byte

type CourseSeed struct {
	CourseCode       string `json:"course_code"`
	CourseName       string `json:"course_name"`
	CourseInstructor string `json:"course_instructor"`
	CourseProgram    string `json:"course_program"`
	CourseSchedule   string `json:"course_schedule"`
	CourseCredits    int    `json:"course_credits"`
	CourseCapacity   int    `json:"course_capacity"`
}

// SeedCoursesFromJSON inserts the catalogue, leaving courses whose code
// already exists untouched. Returns the number of rows inserted.
func SeedCoursesFromJSON(db *gorm.DB, data []byte) (int64, error) {
	var seeds []CourseSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("decode course seed: %w", err)
	}
	if len(seeds) == 0 {
		return 0, nil
	}

	rows := make([]model.CourseModel, 0, len(seeds))
	for _, s := range seeds {
		instructor := s.CourseInstructor
		schedule := s.CourseSchedule
		desc := "Comprehensive course covering " + s.CourseName
		capacity := s.CourseCapacity
		if capacity <= 0 {
			capacity = model.DefaultCourseCapacity
		}
		rows = append(rows, model.CourseModel{
			CourseCode:        strings.ToUpper(strings.TrimSpace(s.CourseCode)),
			CourseName:        s.CourseName,
			CourseCredits:     s.CourseCredits,
			CourseInstructor:  &instructor,
			CourseSchedule:    &schedule,
			CourseProgram:     s.CourseProgram,
			CourseDescription: &desc,
			CourseCapacity:    capacity,
			CourseIsActive:    true,
		})
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_code"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("insert courses: %w", res.Error)
	}
	log.Printf("[SEED] courses inserted=%d skipped=%d", res.RowsAffected, int64(len(rows))-res.RowsAffected)
	return res.RowsAffected, nil
}
