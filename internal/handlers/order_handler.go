package handlers

import (
	"kabro/internal/middleware"
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/orders", h.HandleCreateOrder)
}

// HandleCreateOrder places an order for the session user, or as a guest.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	receipt, err := h.service.PlaceOrder(c.UserContext(), middleware.SessionFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(receipt)
}
