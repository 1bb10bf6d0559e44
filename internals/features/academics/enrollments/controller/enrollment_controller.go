package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/enrollments/dto"
	"admissions_backend/internals/features/academics/enrollments/service"
	helper "admissions_backend/internals/helpers"
	helperAuth "admissions_backend/internals/helpers/auth"
)

type EnrollmentController struct {
	Svc       *service.EnrollmentService
	Validator *validator.Validate
}

func NewEnrollmentController(svc *service.EnrollmentService, v *validator.Validate) *EnrollmentController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &EnrollmentController{Svc: svc, Validator: v}
}

func parseUUIDParam(c *fiber.Ctx, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+what+" id")
	}
	return id, nil
}

// POST /api/u/enrollments
func (ctl *EnrollmentController) Enroll(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	courseID, _ := uuid.Parse(req.CourseID)

	m, err := ctl.Svc.Enroll(c.UserContext(), studentID, courseID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "enrolled", dto.FromEnrollmentModel(m))
}

// POST /api/u/enrollments/batch
func (ctl *EnrollmentController) EnrollBatch(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.EnrollBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rows, err := ctl.Svc.EnrollBatch(c.UserContext(), studentID, req.ParseCourseIDs())
	if err != nil {
		var be *service.BatchError
		if errors.As(err, &be) {
			return helper.JsonErrorData(c, err, fiber.Map{
				"failed_index":     be.Index,
				"failed_course_id": be.CourseID,
			})
		}
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "enrolled", dto.FromEnrollmentModels(rows))
}

// DELETE /api/u/enrollments/:course_id
func (ctl *EnrollmentController) Drop(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	courseID, err := parseUUIDParam(c, "course_id", "course")
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := ctl.Svc.Drop(c.UserContext(), studentID, courseID); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonDeleted(c, "course dropped", fiber.Map{"course_id": courseID})
}

// GET /api/u/enrollments?active=true
func (ctl *EnrollmentController) ListMine(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	return ctl.list(c, studentID)
}

// GET /api/a/students/:id/enrollments?active=true
func (ctl *EnrollmentController) ListForStudent(c *fiber.Ctx) error {
	studentID, err := parseUUIDParam(c, "id", "student")
	if err != nil {
		return helper.FromError(c, err)
	}
	return ctl.list(c, studentID)
}

func (ctl *EnrollmentController) list(c *fiber.Ctx, studentID uuid.UUID) error {
	rows, err := ctl.Svc.ListForStudent(c.UserContext(), studentID, c.QueryBool("active", false))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromViews(rows))
}

// GET /api/u/enrollments/:course_id/check
func (ctl *EnrollmentController) Check(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	courseID, err := parseUUIDParam(c, "course_id", "course")
	if err != nil {
		return helper.FromError(c, err)
	}
	ok, err := ctl.Svc.IsEnrolled(c.UserContext(), studentID, courseID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"enrolled": ok})
}
