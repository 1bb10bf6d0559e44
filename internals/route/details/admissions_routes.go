package details

import (
	"github.com/gofiber/fiber/v2"

	applicantRoute "admissions_backend/internals/features/admissions/applicants/route"
	applicantService "admissions_backend/internals/features/admissions/applicants/service"
	"admissions_backend/internals/middlewares"
)

// Base: /api/public
func AdmissionsPublicRoutes(public fiber.Router, applicants *applicantService.ApplicantService) {
	public.Use("/applicants", middlewares.SubmissionRateLimiter())
	applicantRoute.ApplicantPublicRoutes(public, applicants)
}

// Base: /api/a
func AdmissionsReviewerRoutes(admin fiber.Router, applicants *applicantService.ApplicantService) {
	applicantRoute.ApplicantReviewerRoutes(admin, applicants)
}
