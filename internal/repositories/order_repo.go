package repositories

import (
	"context"

	"kabro/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists the order and all of its items atomically and returns
	// the stored order with its items and user loaded.
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
}
