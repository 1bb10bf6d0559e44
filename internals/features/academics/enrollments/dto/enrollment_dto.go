package dto

import (
	"time"

	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/enrollments/model"
	"admissions_backend/internals/features/academics/enrollments/service"
)

type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type EnrollBatchRequest struct {
	CourseIDs []string `json:"course_ids" validate:"required,min=1,max=20,dive,required,uuid"`
}

// ParseCourseIDs assumes the request already passed validation.
func (r EnrollBatchRequest) ParseCourseIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.CourseIDs))
	for _, s := range r.CourseIDs {
		id, _ := uuid.Parse(s)
		out = append(out, id)
	}
	return out
}

type EnrollmentResponse struct {
	CourseEnrollmentID         uuid.UUID  `json:"course_enrollment_id"`
	CourseEnrollmentStudentID  uuid.UUID  `json:"course_enrollment_student_id"`
	CourseEnrollmentCourseID   uuid.UUID  `json:"course_enrollment_course_id"`
	CourseEnrollmentStatus     string     `json:"course_enrollment_status"`
	CourseEnrollmentEnrolledAt time.Time  `json:"course_enrollment_enrolled_at"`
	CourseEnrollmentDroppedAt  *time.Time `json:"course_enrollment_dropped_at,omitempty"`

	// Course fields, only on list responses
	CourseCode       string  `json:"course_code,omitempty"`
	CourseName       string  `json:"course_name,omitempty"`
	CourseCredits    int     `json:"course_credits,omitempty"`
	CourseInstructor *string `json:"course_instructor,omitempty"`
	CourseSchedule   *string `json:"course_schedule,omitempty"`
	CourseProgram    string  `json:"course_program,omitempty"`
}

func FromEnrollmentModel(m *model.CourseEnrollmentModel) EnrollmentResponse {
	return EnrollmentResponse{
		CourseEnrollmentID:         m.CourseEnrollmentID,
		CourseEnrollmentStudentID:  m.CourseEnrollmentStudentID,
		CourseEnrollmentCourseID:   m.CourseEnrollmentCourseID,
		CourseEnrollmentStatus:     string(m.CourseEnrollmentStatus),
		CourseEnrollmentEnrolledAt: m.CourseEnrollmentEnrolledAt,
		CourseEnrollmentDroppedAt:  m.CourseEnrollmentDroppedAt,
	}
}

func FromEnrollmentModels(rows []model.CourseEnrollmentModel) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromEnrollmentModel(&rows[i]))
	}
	return out
}

func FromViews(rows []service.EnrollmentView) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(rows))
	for i := range rows {
		r := FromEnrollmentModel(&rows[i].CourseEnrollmentModel)
		r.CourseCode = rows[i].CourseCode
		r.CourseName = rows[i].CourseName
		r.CourseCredits = rows[i].CourseCredits
		r.CourseInstructor = rows[i].CourseInstructor
		r.CourseSchedule = rows[i].CourseSchedule
		r.CourseProgram = rows[i].CourseProgram
		out = append(out, r)
	}
	return out
}
