package repositories

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"kabro/internal/models"
)

//go:embed data/products.json
var defaultCatalogue []byte

// JSONProductRepository reads the catalogue from a JSON document shaped like
// the storefront's products.json.
type JSONProductRepository struct {
	path string
}

// NewJSONProductRepository creates a repository reading path, or the embedded
// default catalogue when path is empty.
func NewJSONProductRepository(path string) *JSONProductRepository {
	return &JSONProductRepository{path: path}
}

// LoadCatalogue reads and decodes the catalogue document.
func (r *JSONProductRepository) LoadCatalogue(ctx context.Context) (*models.Catalogue, error) {
	data := defaultCatalogue
	if r.path != "" {
		raw, err := os.ReadFile(r.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalogue %s: %w", r.path, err)
		}
		data = raw
	}

	var catalogue models.Catalogue
	if err := json.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}
	return &catalogue, nil
}
