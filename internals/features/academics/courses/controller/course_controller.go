package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"admissions_backend/internals/features/academics/courses/dto"
	"admissions_backend/internals/features/academics/courses/service"
	helper "admissions_backend/internals/helpers"
)

type CourseController struct {
	Svc       *service.CourseService
	Validator *validator.Validate
}

func NewCourseController(svc *service.CourseService, v *validator.Validate) *CourseController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &CourseController{Svc: svc, Validator: v}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid course id")
	}
	return id, nil
}

// GET /courses?program=&active=true
func (ctl *CourseController) List(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", true)
	rows, err := ctl.Svc.List(c.UserContext(), c.Query("program"), activeOnly)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromCourseModels(rows))
}

// GET /courses/:id
func (ctl *CourseController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromCourseModel(m))
}

// POST /courses
func (ctl *CourseController) Create(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := ctl.Svc.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "course created", dto.FromCourseModel(m))
}

// PATCH /courses/:id/capacity
func (ctl *CourseController) UpdateCapacity(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.UpdateCapacityRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := ctl.Svc.UpdateCapacity(c.UserContext(), id, *req.CourseCapacity)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "capacity updated", dto.FromCourseModel(m))
}

// PATCH /courses/:id/active
func (ctl *CourseController) SetActive(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := ctl.Svc.SetActive(c.UserContext(), id, *req.CourseIsActive)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "course updated", dto.FromCourseModel(m))
}

// POST /courses/reconcile
func (ctl *CourseController) Reconcile(c *fiber.Ctx) error {
	n, err := ctl.Svc.ReconcileCounters(c.UserContext())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "counters reconciled", fiber.Map{"courses_fixed": n})
}
