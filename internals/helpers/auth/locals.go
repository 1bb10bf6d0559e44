// Package auth reads the identity that the JWT middleware stores in Locals.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocUserID    = "user_id"
	LocRole      = "role"
	LocEmail     = "email"
	LocStudentID = "student_id"
	LocClaims    = "jwt_claims"
)

func localString(c *fiber.Ctx, key string) string {
	switch v := c.Locals(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case uuid.UUID:
		return v.String()
	default:
		return ""
	}
}

func Role(c *fiber.Ctx) string {
	return strings.ToLower(localString(c, LocRole))
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(localString(c, LocUserID))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user id missing from token")
	}
	return id, nil
}

// GetStudentID returns the student the token was issued for.
func GetStudentID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(localString(c, LocStudentID))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "token is not bound to a student")
	}
	return id, nil
}

// Actor names the caller for audit rows: email, else user id, else role.
func Actor(c *fiber.Ctx) string {
	if e := localString(c, LocEmail); e != "" {
		return e
	}
	if u := localString(c, LocUserID); u != "" {
		return u
	}
	if r := Role(c); r != "" {
		return r
	}
	return "anonymous"
}
