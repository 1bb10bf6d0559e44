package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"admissions_backend/internals/features/admissions/applicants/dto"
	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/repository"
	"admissions_backend/internals/features/admissions/applicants/service"
	helper "admissions_backend/internals/helpers"
	helperAuth "admissions_backend/internals/helpers/auth"
)

type ApplicantController struct {
	Svc       *service.ApplicantService
	Validator *validator.Validate
}

func NewApplicantController(svc *service.ApplicantService, v *validator.Validate) *ApplicantController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &ApplicantController{Svc: svc, Validator: v}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid applicant id")
	}
	return id, nil
}

// POST /api/public/applicants
func (ctl *ApplicantController) Submit(c *fiber.Ctx) error {
	var req dto.SubmitApplicantRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Svc.Submit(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "application submitted", dto.FromApplicantModel(m))
}

// GET /api/a/applicants?email=&program=&status=&page=&per_page=
func (ctl *ApplicantController) List(c *fiber.Ctx) error {
	var q dto.ListApplicantsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	status := model.ApplicantStatus("")
	if s := strings.TrimSpace(q.Status); s != "" {
		status = model.ApplicantStatus(strings.ToUpper(s))
	}

	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Svc.List(c.UserContext(), repository.SearchFilter{
		Email:   q.Email,
		Program: q.Program,
		Status:  status,
	}, pg.Offset, pg.Limit)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromApplicantModels(rows),
		helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(rows)))
}

// GET /api/a/applicants/:id
func (ctl *ApplicantController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	n, err := ctl.Svc.CountNotes(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	resp := dto.FromApplicantModel(m)
	resp.ApplicantNoteCount = &n
	return helper.JsonOK(c, "ok", resp)
}

// GET /api/a/applicants/by-email?email=
func (ctl *ApplicantController) GetByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return helper.JsonValidationError(c, map[string][]string{"email": {"is required"}})
	}
	m, err := ctl.Svc.GetByEmail(c.UserContext(), email)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromApplicantModel(m))
}

// PATCH /api/a/applicants/:id
func (ctl *ApplicantController) Patch(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.UpdateApplicantRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Svc.Update(c.UserContext(), id, *req.Version, req.ToPatch(), helperAuth.Actor(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "applicant updated", dto.FromApplicantModel(m))
}

// DELETE /api/a/applicants/:id
func (ctl *ApplicantController) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := ctl.Svc.SoftDelete(c.UserContext(), id); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonDeleted(c, "applicant deleted", fiber.Map{"applicant_id": id})
}

// GET /api/a/applicants/:id/ai-hint
func (ctl *ApplicantController) AIHint(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	h, err := ctl.Svc.ComputeHint(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromHint(h))
}

// GET /api/a/applicants/:id/status-log
func (ctl *ApplicantController) StatusLog(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctl.Svc.StatusLog(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromStatusLogs(rows))
}

// POST /api/a/applicants/:id/notes
func (ctl *ApplicantController) AddNote(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	by := service.Reviewer{Name: helperAuth.Actor(c)}
	if uid, err := helperAuth.GetUserID(c); err == nil {
		by.ID = &uid
	}
	n, err := ctl.Svc.AddNote(c.UserContext(), id, by, req.Content)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "note added", dto.FromNoteModel(n))
}

// GET /api/a/applicants/:id/notes
func (ctl *ApplicantController) Notes(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctl.Svc.Notes(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromNoteModels(rows))
}
