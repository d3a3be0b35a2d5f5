package handlers

import (
	"time"

	"kabro/internal/config"
	"kabro/internal/middleware"
	"kabro/internal/models"
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	cookie      config.AuthConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookie config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// RegisterRoutes registers the authentication routes. The Session
// middleware must already be installed on router.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", middleware.AuthRequired(), h.HandleMe)
	authRoutes.Post("/logout", h.HandleLogout)
}

// HandleRegister creates an account and opens a session.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return h.startSession(c, user)
}

// HandleLogin checks the credentials and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return h.startSession(c, user)
}

// HandleMe returns the signed-in user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), middleware.SessionFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user.Public()})
}

// HandleLogout clears the session cookie. It succeeds without a session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0),
		HTTPOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) startSession(c *fiber.Ctx, user *models.User) error {
	token, expires, err := h.authService.IssueToken(user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.cookie.SessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"user": user.Public()})
}
