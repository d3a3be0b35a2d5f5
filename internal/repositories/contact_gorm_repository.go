package repositories

import (
	"context"
	"errors"
	"fmt"

	"kabro/internal/models"

	"gorm.io/gorm"
)

// GORMContactRepository is a GORM implementation of ContactRepository.
type GORMContactRepository struct {
	db *gorm.DB
}

// NewGORMContactRepository creates a new instance of GORMContactRepository.
func NewGORMContactRepository(db *gorm.DB) *GORMContactRepository {
	return &GORMContactRepository{db: db}
}

// Create inserts a contact message.
func (r *GORMContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

// GetByID retrieves a contact message by its ID.
func (r *GORMContactRepository) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contact message with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact message %d: %w", id, err)
	}
	return &msg, nil
}
