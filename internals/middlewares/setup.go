package middlewares

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"admissions_backend/internals/configs"
)

const accessLogFormat = "[${time}] ${ip} - ${locals:reqid} ${method} ${path} - ${status} - ${latency}\n"

func SetupMiddlewares(app *fiber.App, cfg *configs.Config) {
	app.Use(RequestContext(5 * time.Second))
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: logPanic,
	}))
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     accessLogFormat,
	}))
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(GlobalRateLimiter())
}

// logPanic ties the panic to the request id set by RequestContext.
func logPanic(c *fiber.Ctx, e any) {
	id, _ := c.Locals(LocRequestID).(string)
	log.Printf("[PANIC] id=%s %s %s: %v", id, c.Method(), c.OriginalURL(), e)
}
