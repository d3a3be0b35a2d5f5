package middleware

import (
	"strings"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

// Session reads the session token from the cookie, or from an
// "Authorization: Bearer <token>" header, and stores the session in the
// context when it is valid. It never rejects a request: a missing or broken
// token simply means a guest.
func Session(authService *services.AuthService, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			if parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = strings.TrimSpace(parts[1])
			}
		}
		if token != "" {
			if session, err := authService.ParseSession(token); err == nil {
				c.Locals(sessionLocal, session)
			}
		}
		return c.Next()
	}
}

// AuthRequired rejects requests that carry no valid session. It must run
// after Session.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c) == nil {
			return &apperr.AuthenticationError{Code: apperr.CodeUnauthenticated}
		}
		return c.Next()
	}
}

// SessionFrom returns the request's session, or nil for guests.
func SessionFrom(c *fiber.Ctx) *models.Session {
	session, _ := c.Locals(sessionLocal).(*models.Session)
	return session
}
