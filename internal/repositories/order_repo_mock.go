package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kabro/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[uint]models.Order
	users  UserRepository
	nextID uint
	itemID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// users may be nil, in which case orders are returned without their user.
func NewMockOrderRepository(users UserRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
		users:  users,
	}
}

// Create stores the order and its items under fresh IDs.
func (r *MockOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("refusing to persist order without items")
	}

	r.mu.Lock()
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		r.itemID++
		item.ID = r.itemID
		item.OrderID = order.ID
		items[i] = item
	}
	order.Items = items
	stored := *order
	stored.User = nil
	r.orders[order.ID] = stored
	r.mu.Unlock()

	return r.GetByID(ctx, order.ID)
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	r.mu.RLock()
	order, ok := r.orders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}

	order.Items = append([]models.OrderItem(nil), order.Items...)
	if order.UserID != nil && r.users != nil {
		if user, err := r.users.GetByID(ctx, *order.UserID); err == nil {
			order.User = user
		}
	}
	return &order, nil
}

// All returns every stored order, in insertion order.
func (r *MockOrderRepository) All() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for id := uint(1); id <= r.nextID; id++ {
		if order, ok := r.orders[id]; ok {
			orderList = append(orderList, order)
		}
	}
	return orderList
}
