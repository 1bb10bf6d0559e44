package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentFailed    EnrollmentStatus = "FAILED"
)

/* ======================================================
   Model: course_enrollments
   Rows are never deleted. A student holds at most one ENROLLED row per
   course (partial unique index); re-enrolling after a drop inserts a new row.
====================================================== */

type CourseEnrollmentModel struct {
	CourseEnrollmentID uuid.UUID `gorm:"column:course_enrollment_id;type:uuid;primaryKey" json:"course_enrollment_id"`

	CourseEnrollmentStudentID uuid.UUID        `gorm:"column:course_enrollment_student_id;type:uuid;not null;index;uniqueIndex:uq_course_enrollments_active,where:course_enrollment_status = 'ENROLLED'" json:"course_enrollment_student_id"`
	CourseEnrollmentCourseID  uuid.UUID        `gorm:"column:course_enrollment_course_id;type:uuid;not null;index;uniqueIndex:uq_course_enrollments_active,where:course_enrollment_status = 'ENROLLED'" json:"course_enrollment_course_id"`
	CourseEnrollmentStatus    EnrollmentStatus `gorm:"column:course_enrollment_status;type:varchar(20);not null;index" json:"course_enrollment_status"`

	CourseEnrollmentEnrolledAt time.Time  `gorm:"column:course_enrollment_enrolled_at;not null" json:"course_enrollment_enrolled_at"`
	CourseEnrollmentDroppedAt  *time.Time `gorm:"column:course_enrollment_dropped_at" json:"course_enrollment_dropped_at,omitempty"`

	CourseEnrollmentCreatedAt time.Time `gorm:"column:course_enrollment_created_at;not null;autoCreateTime" json:"course_enrollment_created_at"`
	CourseEnrollmentUpdatedAt time.Time `gorm:"column:course_enrollment_updated_at;not null;autoUpdateTime" json:"course_enrollment_updated_at"`
}

func (CourseEnrollmentModel) TableName() string {
	return "course_enrollments"
}

func (m *CourseEnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.CourseEnrollmentID == uuid.Nil {
		m.CourseEnrollmentID = uuid.New()
	}
	return nil
}

func (m *CourseEnrollmentModel) Active() bool {
	return m.CourseEnrollmentStatus == EnrollmentEnrolled
}
