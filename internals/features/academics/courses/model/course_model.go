package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultCourseCapacity = 50

/* ======================================================
   Model: courses
   course_enrolled mirrors the ENROLLED rows in course_enrollments and
   is only moved by the seat guard (0 <= enrolled <= capacity).
====================================================== */

type CourseModel struct {
	CourseID uuid.UUID `gorm:"column:course_id;type:uuid;primaryKey" json:"course_id"`

	CourseCode        string  `gorm:"column:course_code;type:varchar(20);not null;uniqueIndex:uq_courses_code" json:"course_code"`
	CourseName        string  `gorm:"column:course_name;type:varchar(200);not null" json:"course_name"`
	CourseCredits     int     `gorm:"column:course_credits;not null" json:"course_credits"`
	CourseInstructor  *string `gorm:"column:course_instructor;type:varchar(100)" json:"course_instructor,omitempty"`
	CourseSchedule    *string `gorm:"column:course_schedule;type:varchar(100)" json:"course_schedule,omitempty"`
	CourseProgram     string  `gorm:"column:course_program;type:varchar(100);not null;index" json:"course_program"`
	CourseDescription *string `gorm:"column:course_description;type:text" json:"course_description,omitempty"`

	// Seats
	CourseCapacity int  `gorm:"column:course_capacity;not null" json:"course_capacity"`
	CourseEnrolled int  `gorm:"column:course_enrolled;not null" json:"course_enrolled"`
	CourseIsActive bool `gorm:"column:course_is_active;not null;index" json:"course_is_active"`

	CourseCreatedAt time.Time `gorm:"column:course_created_at;not null;autoCreateTime" json:"course_created_at"`
	CourseUpdatedAt time.Time `gorm:"column:course_updated_at;not null;autoUpdateTime" json:"course_updated_at"`
}

func (CourseModel) TableName() string {
	return "courses"
}

func (m *CourseModel) BeforeCreate(tx *gorm.DB) error {
	if m.CourseID == uuid.Nil {
		m.CourseID = uuid.New()
	}
	return nil
}

func (m *CourseModel) SeatsLeft() int {
	if n := m.CourseCapacity - m.CourseEnrolled; n > 0 {
		return n
	}
	return 0
}
