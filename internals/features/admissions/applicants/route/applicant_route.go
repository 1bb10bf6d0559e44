package route

import (
	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/features/admissions/applicants/controller"
	"admissions_backend/internals/features/admissions/applicants/service"
)

// Base: /api/public
func ApplicantPublicRoutes(public fiber.Router, svc *service.ApplicantService) {
	ctl := controller.NewApplicantController(svc, nil)
	public.Post("/applicants", ctl.Submit)
}

// Base: /api/a (reviewer or admin)
func ApplicantReviewerRoutes(admin fiber.Router, svc *service.ApplicantService) {
	ctl := controller.NewApplicantController(svc, nil)

	r := admin.Group("/applicants")
	r.Get("/", ctl.List)
	r.Get("/by-email", ctl.GetByEmail)
	r.Get("/:id", ctl.Get)
	r.Patch("/:id", ctl.Patch)
	r.Delete("/:id", ctl.Delete)
	r.Get("/:id/ai-hint", ctl.AIHint)
	r.Get("/:id/status-log", ctl.StatusLog)
	r.Get("/:id/notes", ctl.Notes)
	r.Post("/:id/notes", ctl.AddNote)
}
