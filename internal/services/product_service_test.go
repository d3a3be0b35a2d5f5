package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/repositories"
	"kabro/internal/services"
	"kabro/pkg/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testCatalogue() models.Catalogue {
	return models.Catalogue{
		Categories: []models.Category{{ID: "snacks", Name: "Snacks"}, {ID: "self-care", Name: "Self Care"}},
		Products: []models.Product{
			{Slug: "lays", Name: "Lay's Classic", Price: decimal.NewFromInt(12), OriginalPrice: decPtr("15"), IsHot: true, CategoryID: "snacks", SubcategorySlug: "chips"},
			{Slug: "coke", Name: "Coca-Cola", Price: decimal.NewFromInt(7), IsHot: true, CategoryID: "snacks", SubcategorySlug: "soft-drinks"},
			{Slug: "axe", Name: "Gel douche Axe", Price: decimal.NewFromInt(35), OriginalPrice: decPtr("45"), CategoryID: "self-care"},
			{Slug: "clipper", Name: "Briquet Clipper", Price: decimal.NewFromInt(15), OriginalPrice: decPtr("20"), CategoryID: "snacks"},
			{Slug: "odd", Name: "Odd", Price: decimal.NewFromInt(10), OriginalPrice: decPtr("8"), CategoryID: "snacks"},
		},
	}
}

func newProductService() (*services.ProductService, *repositories.MockProductRepository) {
	repo := repositories.NewMockProductRepository(testCatalogue())
	return services.NewProductService(repo, cache.NewMemory(), time.Minute), repo
}

func slugs(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Slug)
	}
	return out
}

func TestProductService_CatalogueIsCached(t *testing.T) {
	svc, repo := newProductService()
	ctx := context.Background()

	first, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	second, err := svc.Catalogue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Loads())
	assert.Len(t, second.Products, len(first.Products))
	assert.True(t, second.Products[0].Price.Equal(decimal.NewFromInt(12)))

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Loads())
}

func TestProductService_ListProducts(t *testing.T) {
	svc, _ := newProductService()
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	snacks, err := svc.ListProducts(ctx, services.ProductFilter{Category: "snacks", Subcategory: "chips"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lays"}, slugs(snacks))

	found, err := svc.ListProducts(ctx, services.ProductFilter{Query: "  COCA "})
	require.NoError(t, err)
	assert.Equal(t, []string{"coke"}, slugs(found))
}

func TestProductService_GetProduct(t *testing.T) {
	svc, _ := newProductService()

	p, err := svc.GetProduct(context.Background(), "axe")
	require.NoError(t, err)
	assert.Equal(t, "Gel douche Axe", p.Name)

	_, err = svc.GetProduct(context.Background(), "nope")
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, apperr.CodeNotFound, nf.Code)
}

func TestProductService_PromotionsSortedByDiscount(t *testing.T) {
	svc, _ := newProductService()
	promos, err := svc.Promotions(context.Background())
	require.NoError(t, err)
	// clipper 25%, axe 22.2%, lays 20%; "odd" is priced above its original price.
	assert.Equal(t, []string{"clipper", "axe", "lays"}, slugs(promos))
}

func TestProductService_Trending(t *testing.T) {
	svc, _ := newProductService()
	hot, err := svc.Trending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lays", "coke"}, slugs(hot))
}

func TestProductService_LoadFailure(t *testing.T) {
	svc, repo := newProductService()
	repo.FailWith(errors.New("catalogue unreadable"))

	_, err := svc.Catalogue(context.Background())
	assert.Error(t, err)
}
