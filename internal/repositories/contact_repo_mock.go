package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kabro/internal/models"
)

// MockContactRepository is an in-memory implementation of ContactRepository.
type MockContactRepository struct {
	messages []models.ContactMessage
	mu       sync.RWMutex
}

// NewMockContactRepository creates a new instance of MockContactRepository.
func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{}
}

// Create appends the message with the next ID.
func (r *MockContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = uint(len(r.messages) + 1)
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

// GetByID returns a message by its ID.
func (r *MockContactRepository) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == 0 || int(id) > len(r.messages) {
		return nil, fmt.Errorf("contact message with ID %d: %w", id, ErrNotFound)
	}
	msg := r.messages[id-1]
	return &msg, nil
}

// Len returns how many messages were stored.
func (r *MockContactRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
