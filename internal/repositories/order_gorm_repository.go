package repositories

import (
	"context"
	"errors"
	"fmt"

	"kabro/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order row and its item rows in one transaction.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("refusing to persist order without items")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Omit("User").Create(order).Error; err != nil {
			order.Items = items
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			order.Items = items
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, order.ID)
}

// GetByID retrieves an order with its items and user.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("User").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}
