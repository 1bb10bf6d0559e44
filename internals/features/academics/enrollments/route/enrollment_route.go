package route

import (
	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/features/academics/enrollments/controller"
	"admissions_backend/internals/features/academics/enrollments/service"
)

// Base: /api/u (student token)
func EnrollmentUserRoutes(user fiber.Router, svc *service.EnrollmentService) {
	ctl := controller.NewEnrollmentController(svc, nil)

	r := user.Group("/enrollments")
	r.Get("/", ctl.ListMine)
	r.Post("/", ctl.Enroll)
	r.Post("/batch", ctl.EnrollBatch)
	r.Get("/:course_id/check", ctl.Check)
	r.Delete("/:course_id", ctl.Drop)
}

// Base: /api/a
func EnrollmentReviewerRoutes(admin fiber.Router, svc *service.EnrollmentService) {
	ctl := controller.NewEnrollmentController(svc, nil)
	admin.Get("/students/:id/enrollments", ctl.ListForStudent)
}
