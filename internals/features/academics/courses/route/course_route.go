package route

import (
	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/features/academics/courses/controller"
	"admissions_backend/internals/features/academics/courses/service"
)

// Base: /api/public (read-only catalogue)
func CoursePublicRoutes(public fiber.Router, svc *service.CourseService) {
	ctl := controller.NewCourseController(svc, nil)
	public.Get("/courses", ctl.List)
	public.Get("/courses/:id", ctl.Get)
}

// Base: /api/a
func CourseAdminRoutes(admin fiber.Router, svc *service.CourseService) {
	ctl := controller.NewCourseController(svc, nil)

	r := admin.Group("/courses")
	r.Post("/", ctl.Create)
	r.Post("/reconcile", ctl.Reconcile)
	r.Patch("/:id/capacity", ctl.UpdateCapacity)
	r.Patch("/:id/active", ctl.SetActive)
}
