package details

import (
	"github.com/gofiber/fiber/v2"

	courseRoute "admissions_backend/internals/features/academics/courses/route"
	courseService "admissions_backend/internals/features/academics/courses/service"
	enrollmentRoute "admissions_backend/internals/features/academics/enrollments/route"
	enrollmentService "admissions_backend/internals/features/academics/enrollments/service"
	studentRoute "admissions_backend/internals/features/academics/students/route"
	studentService "admissions_backend/internals/features/academics/students/service"
)

// Base: /api/public
func AcademicsPublicRoutes(public fiber.Router, courses *courseService.CourseService) {
	courseRoute.CoursePublicRoutes(public, courses)
}

// Base: /api/u
func AcademicsUserRoutes(user fiber.Router, students *studentService.StudentService, enrollments *enrollmentService.EnrollmentService) {
	studentRoute.StudentUserRoutes(user, students)
	enrollmentRoute.EnrollmentUserRoutes(user, enrollments)
}

// Base: /api/a
func AcademicsReviewerRoutes(
	admin fiber.Router,
	courses *courseService.CourseService,
	students *studentService.StudentService,
	enrollments *enrollmentService.EnrollmentService,
) {
	courseRoute.CourseAdminRoutes(admin, courses)
	studentRoute.StudentReviewerRoutes(admin, students)
	enrollmentRoute.EnrollmentReviewerRoutes(admin, enrollments)
}
