package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/repository"
	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// CatalogManagementHandler handles the admin catalog endpoints: company,
// product, and variant CRUD plus the unrolled dashboard listing.
type CatalogManagementHandler struct {
	mgmtService    *service.CatalogManagementService
	catalogService *service.CatalogService
}

// NewCatalogManagementHandler constructs a CatalogManagementHandler.
func NewCatalogManagementHandler(mgmtService *service.CatalogManagementService, catalogService *service.CatalogService) *CatalogManagementHandler {
	return &CatalogManagementHandler{mgmtService: mgmtService, catalogService: catalogService}
}

// GetCatalog returns the product×variant dashboard listing. Products with
// variants appear once per variant; variant-less products appear once.
func (h *CatalogManagementHandler) GetCatalog(c *gin.Context) {
	filter := &repository.AdminCatalogFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 10),
	}
	if v := c.Query("company"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.CompanyID = n
		}
	}
	if v := c.Query("isActive"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &b
		}
	}

	result, err := h.catalogService.ListAdminCatalog(c.Request.Context(), filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get catalog")
		return
	}

	utils.SuccessWithPagination(c, 200, "Catalog retrieved successfully", gin.H{
		"rows": result.Rows,
	}, result.CurrentPage, filter.PageSize, result.TotalCount)
}

// --- Companies ---

// GetCompanies returns all companies, inactive ones included.
func (h *CatalogManagementHandler) GetCompanies(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "pageSize", 50)

	companies, total, err := h.mgmtService.ListCompanies(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get companies")
		return
	}

	utils.SuccessWithPagination(c, 200, "Companies retrieved successfully", gin.H{
		"companies": companies,
	}, page, limit, total)
}

// CreateCompany creates a new company.
func (h *CatalogManagementHandler) CreateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid company payload")
		return
	}

	company, err := h.mgmtService.CreateCompany(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, utils.ErrDuplicateCompanyName) {
			utils.Error(c, 409, "DUPLICATE_COMPANY_NAME", "A company with this name already exists")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create company")
		return
	}

	utils.Success(c, 201, "Company created successfully", gin.H{"company": company})
}

// UpdateCompany updates a company.
func (h *CatalogManagementHandler) UpdateCompany(c *gin.Context) {
	id, ok := paramInt(c, "companyId")
	if !ok {
		return
	}

	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid company payload")
		return
	}

	company, err := h.mgmtService.UpdateCompany(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrCompanyNotFound):
			utils.Error(c, 404, "COMPANY_NOT_FOUND", "Company not found")
		case errors.Is(err, utils.ErrDuplicateCompanyName):
			utils.Error(c, 409, "DUPLICATE_COMPANY_NAME", "A company with this name already exists")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update company")
		}
		return
	}

	utils.Success(c, 200, "Company updated successfully", gin.H{"company": company})
}

// DeleteCompany removes a company and everything it owns.
func (h *CatalogManagementHandler) DeleteCompany(c *gin.Context) {
	id, ok := paramInt(c, "companyId")
	if !ok {
		return
	}

	if err := h.mgmtService.DeleteCompany(c.Request.Context(), id); err != nil {
		if errors.Is(err, utils.ErrCompanyNotFound) {
			utils.Error(c, 404, "COMPANY_NOT_FOUND", "Company not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete company")
		return
	}

	utils.Success(c, 200, "Company deleted successfully", nil)
}

// --- Products ---

// CreateProduct creates a product under a company.
func (h *CatalogManagementHandler) CreateProduct(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}

	product, err := h.mgmtService.CreateProduct(c.Request.Context(), companyID, &req)
	if err != nil {
		if errors.Is(err, utils.ErrCompanyNotFound) {
			utils.Error(c, 404, "COMPANY_NOT_FOUND", "Company not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	utils.Success(c, 201, "Product created successfully", gin.H{"product": product})
}

// UpdateProduct updates a product under a company.
func (h *CatalogManagementHandler) UpdateProduct(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}
	productID, ok := paramInt(c, "productId")
	if !ok {
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}

	product, err := h.mgmtService.UpdateProduct(c.Request.Context(), companyID, productID, &req)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) || errors.Is(err, utils.ErrCompanyNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update product")
		return
	}

	utils.Success(c, 200, "Product updated successfully", gin.H{"product": product})
}

// DeleteProduct removes a product and its variants and reviews.
func (h *CatalogManagementHandler) DeleteProduct(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}
	productID, ok := paramInt(c, "productId")
	if !ok {
		return
	}

	if err := h.mgmtService.DeleteProduct(c.Request.Context(), companyID, productID); err != nil {
		if errors.Is(err, utils.ErrProductNotFound) || errors.Is(err, utils.ErrCompanyNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete product")
		return
	}

	utils.Success(c, 200, "Product deleted successfully", nil)
}

// --- Variants ---

// CreateVariant adds a variant to a product.
func (h *CatalogManagementHandler) CreateVariant(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}
	productID, ok := paramInt(c, "productId")
	if !ok {
		return
	}

	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid variant payload")
		return
	}

	variant, err := h.mgmtService.CreateVariant(c.Request.Context(), companyID, productID, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrProductNotFound), errors.Is(err, utils.ErrCompanyNotFound):
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		case errors.Is(err, utils.ErrDuplicateSKU):
			utils.Error(c, 409, "DUPLICATE_SKU", "This SKU is already used within the company")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create variant")
		}
		return
	}

	utils.Success(c, 201, "Variant created successfully", gin.H{"variant": variant})
}

// UpdateVariant updates a variant.
func (h *CatalogManagementHandler) UpdateVariant(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}
	productID, ok := paramInt(c, "productId")
	if !ok {
		return
	}
	variantID, ok := paramInt(c, "variantId")
	if !ok {
		return
	}

	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid variant payload")
		return
	}

	variant, err := h.mgmtService.UpdateVariant(c.Request.Context(), companyID, productID, variantID, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrVariantNotFound),
			errors.Is(err, utils.ErrProductNotFound),
			errors.Is(err, utils.ErrCompanyNotFound):
			utils.Error(c, 404, "VARIANT_NOT_FOUND", "Variant not found")
		case errors.Is(err, utils.ErrDuplicateSKU):
			utils.Error(c, 409, "DUPLICATE_SKU", "This SKU is already used within the company")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update variant")
		}
		return
	}

	utils.Success(c, 200, "Variant updated successfully", gin.H{"variant": variant})
}

// DeleteVariant removes a variant.
func (h *CatalogManagementHandler) DeleteVariant(c *gin.Context) {
	companyID, ok := paramInt(c, "companyId")
	if !ok {
		return
	}
	productID, ok := paramInt(c, "productId")
	if !ok {
		return
	}
	variantID, ok := paramInt(c, "variantId")
	if !ok {
		return
	}

	if err := h.mgmtService.DeleteVariant(c.Request.Context(), companyID, productID, variantID); err != nil {
		if errors.Is(err, utils.ErrVariantNotFound) ||
			errors.Is(err, utils.ErrProductNotFound) ||
			errors.Is(err, utils.ErrCompanyNotFound) {
			utils.Error(c, 404, "VARIANT_NOT_FOUND", "Variant not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete variant")
		return
	}

	utils.Success(c, 200, "Variant deleted successfully", nil)
}

func paramInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		utils.Error(c, 400, "INVALID_PARAM", "Invalid "+name)
		return 0, false
	}
	return n, true
}
