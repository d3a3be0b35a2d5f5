package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/repositories"
	"kabro/pkg/cache"
	"kabro/pkg/metrics"
)

// CatalogueCacheKey is the cache key of the whole catalogue document.
const CatalogueCacheKey = "products"

// ProductFilter narrows ListProducts. Empty fields match everything.
type ProductFilter struct {
	Category    string
	Subcategory string
	Query       string
}

// ProductService serves catalogue queries through a cache.
type ProductService struct {
	repo  repositories.ProductRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, c cache.Cache, ttl time.Duration) *ProductService {
	return &ProductService{repo: repo, cache: c, ttl: ttl}
}

// Catalogue returns the categories and products. Cache failures fall back
// to the source.
func (s *ProductService) Catalogue(ctx context.Context) (*models.Catalogue, error) {
	var cached models.Catalogue
	hit, err := s.cache.Get(ctx, CatalogueCacheKey, &cached)
	if err != nil {
		log.Printf("Catalogue cache read failed: %v", err)
	}
	if hit {
		metrics.CacheHits.WithLabelValues(CatalogueCacheKey).Inc()
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues(CatalogueCacheKey).Inc()

	catalogue, err := s.repo.LoadCatalogue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	if err := s.cache.Set(ctx, CatalogueCacheKey, catalogue, s.ttl); err != nil {
		log.Printf("Catalogue cache write failed: %v", err)
	}
	return catalogue, nil
}

// Invalidate drops the cached catalogue.
func (s *ProductService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, CatalogueCacheKey)
}

// ListProducts filters by category, subcategory and a case-insensitive name search.
func (s *ProductService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	catalogue, err := s.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	products := make([]models.Product, 0, len(catalogue.Products))
	for _, p := range catalogue.Products {
		if f.Category != "" && p.CategoryID != f.Category {
			continue
		}
		if f.Subcategory != "" && p.SubcategorySlug != f.Subcategory {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct returns the product with slug.
func (s *ProductService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	catalogue, err := s.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range catalogue.Products {
		if p.Slug == slug {
			product := p
			return &product, nil
		}
	}
	return nil, &apperr.NotFoundError{Code: apperr.CodeNotFound, Resource: "product " + slug}
}

// Promotions returns discounted products, deepest discount first.
func (s *ProductService) Promotions(ctx context.Context) ([]models.Product, error) {
	catalogue, err := s.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	var promos []models.Product
	for _, p := range catalogue.Products {
		if p.OnPromotion() {
			promos = append(promos, p)
		}
	}
	sort.SliceStable(promos, func(i, j int) bool {
		return promos[i].DiscountPercent().GreaterThan(promos[j].DiscountPercent())
	})
	return promos, nil
}

// Trending returns the products flagged hot.
func (s *ProductService) Trending(ctx context.Context) ([]models.Product, error) {
	catalogue, err := s.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	var hot []models.Product
	for _, p := range catalogue.Products {
		if p.IsHot {
			hot = append(hot, p)
		}
	}
	return hot, nil
}
