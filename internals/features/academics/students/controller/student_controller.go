package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/students/dto"
	"admissions_backend/internals/features/academics/students/service"
	helper "admissions_backend/internals/helpers"
	helperAuth "admissions_backend/internals/helpers/auth"
)

type StudentController struct {
	Svc       *service.StudentService
	Validator *validator.Validate
}

func NewStudentController(svc *service.StudentService, v *validator.Validate) *StudentController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &StudentController{Svc: svc, Validator: v}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid student id")
	}
	return id, nil
}

// POST /api/a/students/admit
func (ctl *StudentController) Admit(c *fiber.Ctx) error {
	var req dto.AdmitStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	applicantID, _ := uuid.Parse(req.ApplicantID)

	m, created, err := ctl.Svc.AdmitApplicant(c.UserContext(), applicantID)
	if err != nil {
		return helper.FromError(c, err)
	}
	if !created {
		return helper.JsonOK(c, "applicant already admitted", dto.FromStudentModel(m))
	}
	return helper.JsonCreated(c, "student admitted", dto.FromStudentModel(m))
}

// GET /api/a/students/:id
func (ctl *StudentController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromStudentModel(m))
}

// GET /api/u/students/me
func (ctl *StudentController) Me(c *fiber.Ctx) error {
	id, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromStudentModel(m))
}

// POST /api/a/students/:id/suspend
func (ctl *StudentController) Suspend(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Suspend(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "student suspended", dto.FromStudentModel(m))
}

// POST /api/a/students/:id/reactivate
func (ctl *StudentController) Reactivate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Reactivate(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "student reactivated", dto.FromStudentModel(m))
}
