package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/cache"
	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/repository"
)

// CatalogStore is the slice of product persistence the query engine needs.
type CatalogStore interface {
	ListStorefront(ctx context.Context, filter *repository.StorefrontFilter) ([]models.Product, int, error)
	GetDetail(ctx context.Context, id int) (*models.Product, error)
	GetActiveCategories(ctx context.Context) ([]string, error)
	SearchProductNames(ctx context.Context, search string, limit int) ([]string, error)
	SearchCategories(ctx context.Context, search string, limit int) ([]string, error)
	ListAdmin(ctx context.Context, filter *repository.AdminCatalogFilter) ([]repository.AdminCatalogRow, int, error)
}

// CompanyLister lists active companies for the facet response.
type CompanyLister interface {
	ListActive(ctx context.Context) ([]models.Company, error)
}

// VariantLister loads a product's variants for the detail view.
type VariantLister interface {
	GetByProductID(ctx context.Context, productID int) ([]models.Variant, error)
}

// ReviewLister loads a product's reviews for the detail view.
type ReviewLister interface {
	GetByProductID(ctx context.Context, productID int) ([]models.Review, error)
}

// CatalogService answers storefront reads over the unrolled company→product
// →variant space.
type CatalogService struct {
	products  CatalogStore
	companies CompanyLister
	variants  VariantLister
	reviews   ReviewLister
	cache     *cache.CatalogCache
}

// NewCatalogService constructs a CatalogService. The cache may be nil, in
// which case every read goes to the store.
func NewCatalogService(products CatalogStore, companies CompanyLister, variants VariantLister, reviews ReviewLister, catalogCache *cache.CatalogCache) *CatalogService {
	return &CatalogService{
		products:  products,
		companies: companies,
		variants:  variants,
		reviews:   reviews,
		cache:     catalogCache,
	}
}

// ProductListResult is one page of the filtered storefront listing.
type ProductListResult struct {
	Items       []models.Product `json:"items"`
	TotalCount  int              `json:"totalCount"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

// ListProducts returns a filtered, sorted page of active products of active
// companies plus the total count of the filtered set before pagination.
func (s *CatalogService) ListProducts(ctx context.Context, filter *repository.StorefrontFilter) (*ProductListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 12
	}

	items, total, err := s.products.ListStorefront(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ProductListResult{
		Items:       items,
		TotalCount:  total,
		TotalPages:  (total + filter.PageSize - 1) / filter.PageSize,
		CurrentPage: filter.Page,
	}, nil
}

// GetProduct returns the full product detail, including the owning company
// name, variants, and reviews.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.products.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	variants, err := s.variants.GetByProductID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Variants = variants

	reviews, err := s.reviews.GetByProductID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews

	return product, nil
}

// ListFacets returns the distinct active categories and the active company
// list, both sorted ascending. Results are cached briefly; a cache failure
// falls back to the store.
func (s *CatalogService) ListFacets(ctx context.Context) (*cache.Facets, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFacets(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("facet cache read failed")
		}
	}

	categories, err := s.products.GetActiveCategories(ctx)
	if err != nil {
		return nil, err
	}

	companies, err := s.companies.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	facets := &cache.Facets{
		Categories: categories,
		Companies:  make([]cache.FacetCompany, 0, len(companies)),
	}
	for _, c := range companies {
		facets.Companies = append(facets.Companies, cache.FacetCompany{ID: c.ID, Name: c.Name})
	}

	if s.cache != nil {
		if err := s.cache.SetFacets(ctx, facets); err != nil {
			log.Warn().Err(err).Msg("facet cache write failed")
		}
	}
	return facets, nil
}

// Suggestion types surfaced by SearchSuggestions.
const (
	SuggestionTypeProduct  = "Product"
	SuggestionTypeCategory = "Category"
)

// Suggestion is one search-as-you-type entry.
type Suggestion struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SearchSuggestions matches product names and category labels against the
// query, case-insensitively, returning at most 5 product and 3 category
// suggestions deduplicated by exact label.
func (s *CatalogService) SearchSuggestions(ctx context.Context, query string) ([]Suggestion, error) {
	if query == "" {
		return []Suggestion{}, nil
	}

	if s.cache != nil {
		var cached []Suggestion
		if ok, err := s.cache.GetSuggestions(ctx, query, &cached); err == nil && ok {
			return cached, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("suggestion cache read failed")
		}
	}

	names, err := s.products.SearchProductNames(ctx, query, 5)
	if err != nil {
		return nil, err
	}
	categories, err := s.products.SearchCategories(ctx, query, 3)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names)+len(categories))
	suggestions := make([]Suggestion, 0, len(names)+len(categories))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		suggestions = append(suggestions, Suggestion{Type: SuggestionTypeProduct, Name: name})
	}
	for _, category := range categories {
		if seen[category] {
			continue
		}
		seen[category] = true
		suggestions = append(suggestions, Suggestion{Type: SuggestionTypeCategory, Name: category})
	}

	if s.cache != nil {
		if err := s.cache.SetSuggestions(ctx, query, suggestions); err != nil {
			log.Warn().Err(err).Msg("suggestion cache write failed")
		}
	}
	return suggestions, nil
}

// AdminCatalogResult is one page of the unrolled admin listing.
type AdminCatalogResult struct {
	Rows        []repository.AdminCatalogRow `json:"rows"`
	TotalCount  int                          `json:"totalCount"`
	TotalPages  int                          `json:"totalPages"`
	CurrentPage int                          `json:"currentPage"`
}

// ListAdminCatalog returns the product×variant row space for the admin
// dashboard, inactive records included.
func (s *CatalogService) ListAdminCatalog(ctx context.Context, filter *repository.AdminCatalogFilter) (*AdminCatalogResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}

	rows, total, err := s.products.ListAdmin(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &AdminCatalogResult{
		Rows:        rows,
		TotalCount:  total,
		TotalPages:  (total + filter.PageSize - 1) / filter.PageSize,
		CurrentPage: filter.Page,
	}, nil
}
