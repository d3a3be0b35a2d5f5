package handlers

import (
	"errors"
	"strings"

	"kabro/internal/apperr"
	"kabro/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PreviewHandler serves sandbox email previews stored on the preview disk.
type PreviewHandler struct {
	disk storage.Disk
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(disk storage.Disk) *PreviewHandler {
	return &PreviewHandler{disk: disk}
}

// RegisterRoutes registers the preview route.
func (h *PreviewHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/previews/:id", h.HandleGetPreview)
}

// HandleGetPreview accepts "<uuid>" or "<uuid>.html". Anything else is a 404
// so arbitrary paths never reach the disk.
func (h *PreviewHandler) HandleGetPreview(c *fiber.Ctx) error {
	notFound := &apperr.NotFoundError{Code: apperr.CodeNotFound, Resource: "preview"}

	id, err := uuid.Parse(strings.TrimSuffix(c.Params("id"), ".html"))
	if err != nil {
		return notFound
	}

	data, err := h.disk.Get(c.UserContext(), id.String()+".html")
	if errors.Is(err, storage.ErrNotExist) {
		return notFound
	}
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(data)
}
