package handlers

import (
	"kabro/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalogue.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the catalogue routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/catalogue", h.HandleCatalogue)
	router.Get("/products", h.HandleListProducts)
	router.Get("/products/:slug", h.HandleGetProduct)
	router.Get("/promotions", h.HandlePromotions)
	router.Get("/trending", h.HandleTrending)
}

// HandleCatalogue returns {categories, products}.
func (h *ProductHandler) HandleCatalogue(c *fiber.Ctx) error {
	catalogue, err := h.service.Catalogue(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(catalogue)
}

// HandleListProducts supports ?category=, ?sub= and ?q=.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), services.ProductFilter{
		Category:    c.Query("category"),
		Subcategory: c.Query("sub"),
		Query:       c.Query("q"),
	})
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandlePromotions(c *fiber.Ctx) error {
	products, err := h.service.Promotions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(orEmpty(products))
}

func (h *ProductHandler) HandleTrending(c *fiber.Ctx) error {
	products, err := h.service.Trending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(orEmpty(products))
}

// orEmpty keeps empty lists as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
