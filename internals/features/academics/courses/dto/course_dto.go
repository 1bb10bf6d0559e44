package dto

import (
	"time"

	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/courses/model"
	"admissions_backend/internals/features/academics/courses/service"
)

type CreateCourseRequest struct {
	CourseCode        string  `json:"course_code" validate:"required,max=20"`
	CourseName        string  `json:"course_name" validate:"required,max=200"`
	CourseCredits     int     `json:"course_credits" validate:"min=0,max=30"`
	CourseInstructor  *string `json:"course_instructor" validate:"omitempty,max=100"`
	CourseSchedule    *string `json:"course_schedule" validate:"omitempty,max=100"`
	CourseProgram     string  `json:"course_program" validate:"required,max=100"`
	CourseDescription *string `json:"course_description"`
	CourseCapacity    *int    `json:"course_capacity" validate:"omitempty,min=0"`
}

func (r CreateCourseRequest) ToInput() service.CreateCourseInput {
	return service.CreateCourseInput{
		Code:        r.CourseCode,
		Name:        r.CourseName,
		Credits:     r.CourseCredits,
		Instructor:  r.CourseInstructor,
		Schedule:    r.CourseSchedule,
		Program:     r.CourseProgram,
		Description: r.CourseDescription,
		Capacity:    r.CourseCapacity,
	}
}

type UpdateCapacityRequest struct {
	CourseCapacity *int `json:"course_capacity" validate:"required,min=0"`
}

type SetActiveRequest struct {
	CourseIsActive *bool `json:"course_is_active" validate:"required"`
}

type CourseResponse struct {
	CourseID          uuid.UUID `json:"course_id"`
	CourseCode        string    `json:"course_code"`
	CourseName        string    `json:"course_name"`
	CourseCredits     int       `json:"course_credits"`
	CourseInstructor  *string   `json:"course_instructor,omitempty"`
	CourseSchedule    *string   `json:"course_schedule,omitempty"`
	CourseProgram     string    `json:"course_program"`
	CourseDescription *string   `json:"course_description,omitempty"`
	CourseCapacity    int       `json:"course_capacity"`
	CourseEnrolled    int       `json:"course_enrolled"`
	CourseSeatsLeft   int       `json:"course_seats_left"`
	CourseIsActive    bool      `json:"course_is_active"`
	CourseUpdatedAt   time.Time `json:"course_updated_at"`
}

func FromCourseModel(m *model.CourseModel) CourseResponse {
	return CourseResponse{
		CourseID:          m.CourseID,
		CourseCode:        m.CourseCode,
		CourseName:        m.CourseName,
		CourseCredits:     m.CourseCredits,
		CourseInstructor:  m.CourseInstructor,
		CourseSchedule:    m.CourseSchedule,
		CourseProgram:     m.CourseProgram,
		CourseDescription: m.CourseDescription,
		CourseCapacity:    m.CourseCapacity,
		CourseEnrolled:    m.CourseEnrolled,
		CourseSeatsLeft:   m.SeatsLeft(),
		CourseIsActive:    m.CourseIsActive,
		CourseUpdatedAt:   m.CourseUpdatedAt,
	}
}

func FromCourseModels(rows []model.CourseModel) []CourseResponse {
	out := make([]CourseResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromCourseModel(&rows[i]))
	}
	return out
}
