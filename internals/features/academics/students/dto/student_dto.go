package dto

import (
	"time"

	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/students/model"
)

type AdmitStudentRequest struct {
	ApplicantID string `json:"applicant_id" validate:"required,uuid"`
}

type StudentResponse struct {
	StudentID              uuid.UUID  `json:"student_id"`
	StudentApplicantID     uuid.UUID  `json:"student_applicant_id"`
	StudentCode            string     `json:"student_code"`
	StudentProgram         string     `json:"student_program"`
	StudentStatus          string     `json:"student_status"`
	StudentGPA             string     `json:"student_gpa"`
	StudentCreditsEarned   int        `json:"student_credits_earned"`
	StudentCreditsRequired int        `json:"student_credits_required"`
	StudentEnrollmentDate  time.Time  `json:"student_enrollment_date"`
	StudentGraduationDate  *time.Time `json:"student_graduation_date,omitempty"`
}

func FromStudentModel(m *model.StudentModel) StudentResponse {
	return StudentResponse{
		StudentID:              m.StudentID,
		StudentApplicantID:     m.StudentApplicantID,
		StudentCode:            m.StudentCode,
		StudentProgram:         m.StudentProgram,
		StudentStatus:          string(m.StudentStatus),
		StudentGPA:             m.StudentGPA.StringFixed(2),
		StudentCreditsEarned:   m.StudentCreditsEarned,
		StudentCreditsRequired: m.StudentCreditsRequired,
		StudentEnrollmentDate:  m.StudentEnrollmentDate,
		StudentGraduationDate:  m.StudentGraduationDate,
	}
}
