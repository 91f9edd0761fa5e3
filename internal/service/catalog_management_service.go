package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/cache"
	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/repository"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// CatalogManagementService is the admin-side write surface for companies,
// products, and variants. Every successful write invalidates the storefront
// cache so facets and suggestions stay fresh.
type CatalogManagementService struct {
	companies *repository.CompanyRepository
	products  *repository.ProductRepository
	variants  *repository.VariantRepository
	cache     *cache.CatalogCache
}

// NewCatalogManagementService constructs a CatalogManagementService. The
// cache may be nil when Redis is not configured.
func NewCatalogManagementService(
	companies *repository.CompanyRepository,
	products *repository.ProductRepository,
	variants *repository.VariantRepository,
	catalogCache *cache.CatalogCache,
) *CatalogManagementService {
	return &CatalogManagementService{
		companies: companies,
		products:  products,
		variants:  variants,
		cache:     catalogCache,
	}
}

func (s *CatalogManagementService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
}

// --- Companies ---

// CompanyRequest is the create/update payload for a company.
type CompanyRequest struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// ListCompanies returns all companies for the admin dashboard, newest-name
// ordering, including inactive ones.
func (s *CatalogManagementService) ListCompanies(ctx context.Context, search string, page, limit int) ([]models.Company, int, error) {
	return s.companies.ListAll(ctx, search, page, limit)
}

// GetCompany returns one company by id.
func (s *CatalogManagementService) GetCompany(ctx context.Context, id int) (*models.Company, error) {
	return s.companies.GetByID(ctx, id)
}

// CreateCompany creates a company. Company names are globally unique.
func (s *CatalogManagementService) CreateCompany(ctx context.Context, req *CompanyRequest) (*models.Company, error) {
	name := strings.TrimSpace(req.Name)
	exists, err := s.companies.ExistsName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrDuplicateCompanyName
	}

	company := &models.Company{Name: name, IsActive: true}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	log.Info().Int("company_id", company.ID).Str("name", company.Name).Msg("Company created")
	return company, nil
}

// UpdateCompany updates a company's name and active flag.
func (s *CatalogManagementService) UpdateCompany(ctx context.Context, id int, req *CompanyRequest) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.companies.ExistsName(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrDuplicateCompanyName
	}

	company.Name = name
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return company, nil
}

// DeleteCompany removes a company together with all products, variants, and
// reviews it owns. Placed orders keep their snapshots.
func (s *CatalogManagementService) DeleteCompany(ctx context.Context, id int) error {
	if err := s.companies.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	log.Info().Int("company_id", id).Msg("Company deleted")
	return nil
}

// --- Products ---

// ProductRequest is the create/update payload for a product.
type ProductRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Category    string             `json:"category" binding:"required"`
	BasePrice   float64            `json:"basePrice" binding:"required"`
	MRP         *float64           `json:"mrp"`
	Stock       int                `json:"stock"`
	Attributes  []models.Attribute `json:"attributes"`
	Images      []string           `json:"images"`
	IsActive    *bool              `json:"isActive"`
}

// GetProductForCompany returns a product scoped to its owning company.
func (s *CatalogManagementService) GetProductForCompany(ctx context.Context, companyID, productID int) (*models.Product, error) {
	return s.products.GetByIDInCompany(ctx, productID, companyID)
}

// CreateProduct creates a product under the given company.
func (s *CatalogManagementService) CreateProduct(ctx context.Context, companyID int, req *ProductRequest) (*models.Product, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	product := &models.Product{
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		BasePrice:   req.BasePrice,
		MRP:         req.MRP,
		Stock:       req.Stock,
		Images:      req.Images,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := applyAttributes(product, req.Attributes); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	log.Info().Int("product_id", product.ID).Int("company_id", companyID).Msg("Product created")
	return product, nil
}

// UpdateProduct updates a product scoped to its owning company.
func (s *CatalogManagementService) UpdateProduct(ctx context.Context, companyID, productID int, req *ProductRequest) (*models.Product, error) {
	product, err := s.products.GetByIDInCompany(ctx, productID, companyID)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Category = strings.TrimSpace(req.Category)
	product.BasePrice = req.BasePrice
	product.MRP = req.MRP
	product.Stock = req.Stock
	product.Images = req.Images
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := applyAttributes(product, req.Attributes); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return product, nil
}

// DeleteProduct removes a product and, via cascade, its variants and reviews.
func (s *CatalogManagementService) DeleteProduct(ctx context.Context, companyID, productID int) error {
	if _, err := s.products.GetByIDInCompany(ctx, productID, companyID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	log.Info().Int("product_id", productID).Msg("Product deleted")
	return nil
}

func applyAttributes(product *models.Product, attrs []models.Attribute) error {
	if attrs == nil {
		attrs = []models.Attribute{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	product.Attributes = raw
	return nil
}

// --- Variants ---

// VariantRequest is the create/update payload for a variant.
type VariantRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required"`
	Stock int     `json:"stock"`
	SKU   *string `json:"sku"`
	Unit  *string `json:"unit"`
}

// CreateVariant adds a variant to a product. A non-empty SKU must be unique
// within the owning company.
func (s *CatalogManagementService) CreateVariant(ctx context.Context, companyID, productID int, req *VariantRequest) (*models.Variant, error) {
	if _, err := s.products.GetByIDInCompany(ctx, productID, companyID); err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, companyID, req.SKU, 0); err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ProductID: productID,
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Stock:     req.Stock,
		SKU:       req.SKU,
		Unit:      req.Unit,
	}
	if err := s.variants.Create(ctx, variant); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	log.Info().Int("variant_id", variant.ID).Int("product_id", productID).Msg("Variant created")
	return variant, nil
}

// UpdateVariant updates a variant scoped to its owning product and company.
func (s *CatalogManagementService) UpdateVariant(ctx context.Context, companyID, productID, variantID int, req *VariantRequest) (*models.Variant, error) {
	if _, err := s.products.GetByIDInCompany(ctx, productID, companyID); err != nil {
		return nil, err
	}
	variant, err := s.variants.GetByIDInProduct(ctx, variantID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, companyID, req.SKU, variantID); err != nil {
		return nil, err
	}

	variant.Name = strings.TrimSpace(req.Name)
	variant.Price = req.Price
	variant.Stock = req.Stock
	variant.SKU = req.SKU
	variant.Unit = req.Unit
	if err := s.variants.Update(ctx, variant); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return variant, nil
}

// DeleteVariant removes a variant from a product.
func (s *CatalogManagementService) DeleteVariant(ctx context.Context, companyID, productID, variantID int) error {
	if _, err := s.products.GetByIDInCompany(ctx, productID, companyID); err != nil {
		return err
	}
	if _, err := s.variants.GetByIDInProduct(ctx, variantID, productID); err != nil {
		return err
	}
	if err := s.variants.Delete(ctx, variantID); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogManagementService) checkSKU(ctx context.Context, companyID int, sku *string, excludeID int) error {
	if sku == nil || *sku == "" {
		return nil
	}
	exists, err := s.variants.ExistsSKUInCompany(ctx, companyID, *sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return utils.ErrDuplicateSKU
	}
	return nil
}
