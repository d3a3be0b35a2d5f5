package repositories

import (
	"context"

	"kabro/internal/models"
)

// ContactRepository defines the interface for contact message data access.
// Messages are append-only.
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id uint) (*models.ContactMessage, error)
}
