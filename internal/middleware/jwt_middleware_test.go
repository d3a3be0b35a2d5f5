package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/middleware"
	"kabro/internal/models"
	"kabro/internal/repositories"
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, string) {
	authService := services.NewAuthService(repositories.NewMockUserRepository(), "secret", time.Hour)
	token, _, err := authService.IssueToken(&models.User{ID: 3, Name: "Sami", Email: "sami@example.com"})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var authErr *apperr.AuthenticationError
			if errors.As(err, &authErr) {
				return c.Status(fiber.StatusUnauthorized).SendString(authErr.Code)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	app.Use(middleware.Session(authService, "session"))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if s := middleware.SessionFrom(c); s != nil {
			return c.SendString(s.Name)
		}
		return c.SendString("guest")
	})
	app.Get("/private", middleware.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, token
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestSession_CookieAndBearer(t *testing.T) {
	app, token := newApp(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	_, got := do(t, app, req)
	assert.Equal(t, "Sami", got)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, got = do(t, app, req)
	assert.Equal(t, "Sami", got)
}

func TestSession_InvalidTokenIsGuest(t *testing.T) {
	app, _ := newApp(t)

	_, got := do(t, app, httptest.NewRequest("GET", "/whoami", nil))
	assert.Equal(t, "guest", got)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tampered.token.value"})
	status, got := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "guest", got)
}

func TestAuthRequired(t *testing.T) {
	app, token := newApp(t)

	status, got := do(t, app, httptest.NewRequest("GET", "/private", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperr.CodeUnauthenticated, got)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, got = do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", got)
}
