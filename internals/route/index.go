package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissions_backend/internals/constants"
	courseService "admissions_backend/internals/features/academics/courses/service"
	enrollmentService "admissions_backend/internals/features/academics/enrollments/service"
	studentService "admissions_backend/internals/features/academics/students/service"
	applicantService "admissions_backend/internals/features/admissions/applicants/service"
	authMiddleware "admissions_backend/internals/middlewares/auth"
	routeDetails "admissions_backend/internals/route/details"
)

var startTime time.Time

// Deps carries the services the route groups mount.
type Deps struct {
	DB          *gorm.DB
	JWTSecret   string
	Applicants  *applicantService.ApplicantService
	Courses     *courseService.CourseService
	Students    *studentService.StudentService
	Enrollments *enrollmentService.EnrollmentService
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()

	BaseRoutes(app, d.DB)

	// ===================== GROUPS =====================

	// PUBLIC → no token
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// PRIVATE (STUDENT)
	log.Println("[INFO] Setting up PRIVATE (student) group...")
	user := app.Group("/api/u",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              d.JWTSecret,
			AllowCookieFallback: true,
		}),
		authMiddleware.OnlyRoles(constants.RoleErrorStudent("this endpoint"), constants.StudentOnly...),
	)

	// REVIEWER / ADMIN
	log.Println("[INFO] Setting up REVIEWER group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              d.JWTSecret,
			AllowCookieFallback: true,
		}),
		authMiddleware.OnlyRoles(constants.RoleErrorReviewer("this endpoint"), constants.ReviewerAndAbove...),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Admissions routes...")
	routeDetails.AdmissionsPublicRoutes(public, d.Applicants)
	routeDetails.AdmissionsReviewerRoutes(admin, d.Applicants)

	log.Println("[INFO] Mounting Academics routes...")
	routeDetails.AcademicsPublicRoutes(public, d.Courses)
	routeDetails.AcademicsUserRoutes(user, d.Students, d.Enrollments)
	routeDetails.AcademicsReviewerRoutes(admin, d.Courses, d.Students, d.Enrollments)
}
