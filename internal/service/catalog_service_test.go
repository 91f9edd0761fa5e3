package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/repository"
	"github.com/buildmart/buildmart_api/internal/utils"
)

type fakeCatalogStore struct {
	items      []models.Product
	categories []string
}

func (f *fakeCatalogStore) ListStorefront(_ context.Context, filter *repository.StorefrontFilter) ([]models.Product, int, error) {
	total := len(f.items)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []models.Product{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return f.items[start:end], total, nil
}

func (f *fakeCatalogStore) GetDetail(_ context.Context, id int) (*models.Product, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			cp := f.items[i]
			return &cp, nil
		}
	}
	return nil, utils.ErrProductNotFound
}

func (f *fakeCatalogStore) GetActiveCategories(_ context.Context) ([]string, error) {
	return f.categories, nil
}

func (f *fakeCatalogStore) SearchProductNames(_ context.Context, search string, limit int) ([]string, error) {
	var out []string
	for _, p := range f.items {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			out = append(out, p.Name)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) SearchCategories(_ context.Context, search string, limit int) ([]string, error) {
	var out []string
	for _, c := range f.categories {
		if strings.Contains(strings.ToLower(c), strings.ToLower(search)) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ListAdmin(_ context.Context, _ *repository.AdminCatalogFilter) ([]repository.AdminCatalogRow, int, error) {
	return nil, 0, nil
}

type fakeCompanyLister struct {
	companies []models.Company
}

func (f *fakeCompanyLister) ListActive(_ context.Context) ([]models.Company, error) {
	return f.companies, nil
}

type fakeVariantLister struct {
	variants map[int][]models.Variant
}

func (f *fakeVariantLister) GetByProductID(_ context.Context, productID int) ([]models.Variant, error) {
	return f.variants[productID], nil
}

type fakeReviewLister struct {
	reviews map[int][]models.Review
}

func (f *fakeReviewLister) GetByProductID(_ context.Context, productID int) ([]models.Review, error) {
	return f.reviews[productID], nil
}

func newCatalogFixture() (*CatalogService, *fakeCatalogStore) {
	store := &fakeCatalogStore{
		items: []models.Product{
			{ID: 1, Name: "Portland Cement 40kg", Category: "Cement"},
			{ID: 2, Name: "Portland Cement 50kg", Category: "Cement"},
			{ID: 3, Name: "White Cement 5kg", Category: "Cement"},
			{ID: 4, Name: "Interior Paint", Category: "Paint"},
			{ID: 5, Name: "Exterior Paint", Category: "Paint"},
			{ID: 6, Name: "Paint Thinner", Category: "Paint"},
			{ID: 7, Name: "Ceramic Tile 30x30", Category: "Tiles"},
		},
		categories: []string{"Cement", "Paint", "Tiles"},
	}
	companies := &fakeCompanyLister{companies: []models.Company{
		{ID: 10, Name: "Semen Nusantara", IsActive: true},
		{ID: 11, Name: "Warna Prima", IsActive: true},
	}}
	variants := &fakeVariantLister{variants: map[int][]models.Variant{
		4: {{ID: 21, ProductID: 4, Name: "1 Liter"}, {ID: 22, ProductID: 4, Name: "5 Liter"}},
	}}
	reviews := &fakeReviewLister{reviews: map[int][]models.Review{
		4: {{ID: 1, ProductID: 4, Rating: 4, Comment: "good"}},
	}}
	return NewCatalogService(store, companies, variants, reviews, nil), store
}

func TestListProductsPagination(t *testing.T) {
	svc, _ := newCatalogFixture()

	result, err := svc.ListProducts(context.Background(), &repository.StorefrontFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
	assert.Equal(t, 7, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages) // ceil(7/3)
	assert.Equal(t, 1, result.CurrentPage)

	// Last page is partial.
	result, err = svc.ListProducts(context.Background(), &repository.StorefrontFilter{Page: 3, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)

	// A page past the end is empty but keeps the true total.
	result, err = svc.ListProducts(context.Background(), &repository.StorefrontFilter{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 7, result.TotalCount)
}

func TestListProductsDefaultsPageSize(t *testing.T) {
	svc, _ := newCatalogFixture()

	result, err := svc.ListProducts(context.Background(), &repository.StorefrontFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.CurrentPage)
	assert.Len(t, result.Items, 7)
	assert.Equal(t, 1, result.TotalPages)
}

func TestGetProductDetailLoadsVariantsAndReviews(t *testing.T) {
	svc, _ := newCatalogFixture()

	product, err := svc.GetProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, product.Variants, 2)
	assert.Len(t, product.Reviews, 1)

	// Variant-less product gets empty slices, not nil lookups elsewhere.
	product, err = svc.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, product.Variants)
	assert.Empty(t, product.Reviews)
}

func TestListFacets(t *testing.T) {
	svc, _ := newCatalogFixture()

	facets, err := svc.ListFacets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cement", "Paint", "Tiles"}, facets.Categories)
	require.Len(t, facets.Companies, 2)
	assert.Equal(t, "Semen Nusantara", facets.Companies[0].Name)
}

func TestSearchSuggestionsCapsAndLabels(t *testing.T) {
	svc, _ := newCatalogFixture()

	suggestions, err := svc.SearchSuggestions(context.Background(), "paint")
	require.NoError(t, err)

	var productCount, categoryCount int
	for _, s := range suggestions {
		switch s.Type {
		case SuggestionTypeProduct:
			productCount++
		case SuggestionTypeCategory:
			categoryCount++
		}
	}
	assert.Equal(t, 3, productCount)
	assert.Equal(t, 1, categoryCount)
	assert.LessOrEqual(t, productCount, 5)
	assert.LessOrEqual(t, categoryCount, 3)
}

func TestSearchSuggestionsCapsProducts(t *testing.T) {
	svc, _ := newCatalogFixture()

	// "e" matches every product name; the product list caps at 5.
	suggestions, err := svc.SearchSuggestions(context.Background(), "e")
	require.NoError(t, err)

	var productCount int
	for _, s := range suggestions {
		if s.Type == SuggestionTypeProduct {
			productCount++
		}
	}
	assert.Equal(t, 5, productCount)
}

func TestSearchSuggestionsEmptyQuery(t *testing.T) {
	svc, _ := newCatalogFixture()

	suggestions, err := svc.SearchSuggestions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSearchSuggestionsDeduplicatesLabels(t *testing.T) {
	store := &fakeCatalogStore{
		// A product named exactly like its category produces one suggestion.
		items:      []models.Product{{ID: 1, Name: "Cement", Category: "Cement"}},
		categories: []string{"Cement"},
	}
	svc := NewCatalogService(store, &fakeCompanyLister{}, &fakeVariantLister{}, &fakeReviewLister{}, nil)

	suggestions, err := svc.SearchSuggestions(context.Background(), "cement")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, SuggestionTypeProduct, suggestions[0].Type)
}
