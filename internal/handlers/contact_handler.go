package handlers

import (
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
)

const contactUsage = "Cette route accepte uniquement POST. Utilisez POST /api/contact avec {name,email,message}."

// ContactHandler handles the contact form.
type ContactHandler struct {
	service *services.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// RegisterRoutes registers the contact routes.
func (h *ContactHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/contact", h.HandleSubmit)
	router.Get("/contact", h.HandleUsage)
}

// HandleSubmit records a contact message and notifies the owner.
func (h *ContactHandler) HandleSubmit(c *fiber.Ctx) error {
	var req services.ContactInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	receipt, err := h.service.Submit(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(receipt)
}

// HandleUsage explains how to use the endpoint to someone opening it in a browser.
func (h *ContactHandler) HandleUsage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(contactUsage)
}
