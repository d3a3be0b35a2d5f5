package handlers

import (
	"errors"
	"log"

	"kabro/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps service errors to HTTP responses. Clients always get
// {"error": "<code>"}; internal details only reach the log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		verr     *apperr.ValidationError
		authErr  *apperr.AuthenticationError
		conflict *apperr.ConflictError
		notFound *apperr.NotFoundError
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Code}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &authErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": authErr.Code})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflict.Code})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Code})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErrorCode(fiberErr.Code)})
	}

	log.Printf("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": apperr.CodeInternal})
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperr.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperr.CodeInvalidInput
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	default:
		if status >= 500 {
			return apperr.CodeInternal
		}
		return "request_error"
	}
}

// parseBody decodes the JSON body. Malformed JSON and wrong types are
// reported like any other invalid input.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing %s body: %v", c.Path(), err)
		return apperr.Invalid(map[string]string{"body": "json"})
	}
	return nil
}
