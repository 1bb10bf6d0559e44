package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "admissions_backend/internals/helpers"
)

func ipLimiter(max int, window time.Duration, msg string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, msg)
		},
	})
}

// Global limiter: every endpoint
func GlobalRateLimiter() fiber.Handler {
	return ipLimiter(100, time.Minute, "too many requests, try again later")
}

// Public application submissions (stricter)
func SubmissionRateLimiter() fiber.Handler {
	return ipLimiter(5, time.Minute, "too many submissions, try again in a minute")
}
