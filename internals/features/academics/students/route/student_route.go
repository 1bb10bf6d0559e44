package route

import (
	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/features/academics/students/controller"
	"admissions_backend/internals/features/academics/students/service"
)

// Base: /api/a
func StudentReviewerRoutes(admin fiber.Router, svc *service.StudentService) {
	ctl := controller.NewStudentController(svc, nil)

	r := admin.Group("/students")
	r.Post("/admit", ctl.Admit)
	r.Get("/:id", ctl.Get)
	r.Post("/:id/suspend", ctl.Suspend)
	r.Post("/:id/reactivate", ctl.Reactivate)
}

// Base: /api/u
func StudentUserRoutes(user fiber.Router, svc *service.StudentService) {
	ctl := controller.NewStudentController(svc, nil)
	user.Get("/students/me", ctl.Me)
}
