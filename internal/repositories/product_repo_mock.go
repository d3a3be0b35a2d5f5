package repositories

import (
	"context"
	"sync"

	"kabro/internal/models"
)

// MockProductRepository is an in-memory catalogue source. It counts loads so
// callers can observe caching.
type MockProductRepository struct {
	catalogue models.Catalogue
	loads     int
	err       error
	mu        sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository(catalogue models.Catalogue) *MockProductRepository {
	return &MockProductRepository{catalogue: catalogue}
}

// LoadCatalogue returns a copy of the stored catalogue.
func (r *MockProductRepository) LoadCatalogue(ctx context.Context) (*models.Catalogue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	c := models.Catalogue{
		Categories: append([]models.Category(nil), r.catalogue.Categories...),
		Products:   append([]models.Product(nil), r.catalogue.Products...),
	}
	return &c, nil
}

// FailWith makes subsequent loads return err.
func (r *MockProductRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Loads returns how many times the catalogue was loaded.
func (r *MockProductRepository) Loads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loads
}
