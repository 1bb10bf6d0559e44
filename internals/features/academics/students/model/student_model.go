package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "ACTIVE"
	StudentSuspended StudentStatus = "SUSPENDED"
	StudentGraduated StudentStatus = "GRADUATED"
	StudentWithdrawn StudentStatus = "WITHDRAWN"
)

const DefaultCreditsRequired = 120

/* ======================================================
   Model: students
   One row per admitted applicant (student_applicant_id is unique).
====================================================== */

type StudentModel struct {
	StudentID uuid.UUID `gorm:"column:student_id;type:uuid;primaryKey" json:"student_id"`

	StudentApplicantID uuid.UUID     `gorm:"column:student_applicant_id;type:uuid;not null;uniqueIndex:uq_students_applicant" json:"student_applicant_id"`
	StudentCode        string        `gorm:"column:student_code;type:varchar(50);not null;uniqueIndex:uq_students_code" json:"student_code"`
	StudentProgram     string        `gorm:"column:student_program;type:varchar(200);not null;index" json:"student_program"`
	StudentStatus      StudentStatus `gorm:"column:student_status;type:varchar(20);not null" json:"student_status"`

	StudentGPA             decimal.Decimal `gorm:"column:student_gpa;type:numeric(3,2);not null" json:"student_gpa"`
	StudentCreditsEarned   int             `gorm:"column:student_credits_earned;not null" json:"student_credits_earned"`
	StudentCreditsRequired int             `gorm:"column:student_credits_required;not null" json:"student_credits_required"`

	StudentEnrollmentDate time.Time  `gorm:"column:student_enrollment_date;not null" json:"student_enrollment_date"`
	StudentGraduationDate *time.Time `gorm:"column:student_graduation_date" json:"student_graduation_date,omitempty"`

	StudentCreatedAt time.Time `gorm:"column:student_created_at;not null;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"column:student_updated_at;not null;autoUpdateTime" json:"student_updated_at"`
}

func (StudentModel) TableName() string {
	return "students"
}

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	return nil
}

// CanEnroll reports whether the student may take new courses.
func (m *StudentModel) CanEnroll() bool {
	return m.StudentStatus == StudentActive
}
