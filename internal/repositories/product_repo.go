package repositories

import (
	"context"

	"kabro/internal/models"
)

// ProductRepository defines the interface for the catalogue source.
// The catalogue is a static document loaded as a whole.
type ProductRepository interface {
	LoadCatalogue(ctx context.Context) (*models.Catalogue, error)
}
