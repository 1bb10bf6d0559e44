package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helperAuth "admissions_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret string
	// AllowCookieFallback reads the access_token cookie when no Bearer header is sent.
	AllowCookieFallback bool
}

// AuthJWT verifies an HMAC-signed token and hydrates the identity Locals
// read by helpers/auth. Tokens are issued elsewhere.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		c.Locals(helperAuth.LocClaims, claims)

		// user id: id, then sub, then user_id
		for _, k := range []string{"id", "sub", "user_id"} {
			if v := strClaim(claims, k); v != "" {
				c.Locals(helperAuth.LocUserID, v)
				break
			}
		}
		if v := strClaim(claims, "role"); v != "" {
			c.Locals(helperAuth.LocRole, strings.ToLower(v))
		}
		if v := strClaim(claims, "email"); v != "" {
			c.Locals(helperAuth.LocEmail, v)
		}
		if v := strClaim(claims, "student_id"); v != "" {
			c.Locals(helperAuth.LocStudentID, v)
		}

		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// OnlyRoles rejects callers whose role is not listed.
func OnlyRoles(forbiddenMessage string, roles ...string) fiber.Handler {
	if forbiddenMessage == "" {
		forbiddenMessage = "Forbidden: you are not authorized to access this resource"
	}
	return func(c *fiber.Ctx) error {
		role := helperAuth.Role(c)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, forbiddenMessage)
	}
}
