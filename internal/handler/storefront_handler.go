package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/repository"
	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// StorefrontHandler handles the public catalog endpoints.
type StorefrontHandler struct {
	catalogService *service.CatalogService
}

// NewStorefrontHandler constructs a StorefrontHandler.
func NewStorefrontHandler(catalogService *service.CatalogService) *StorefrontHandler {
	return &StorefrontHandler{catalogService: catalogService}
}

// GetProducts returns the filtered, sorted product listing.
func (h *StorefrontHandler) GetProducts(c *gin.Context) {
	filter := &repository.StorefrontFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Page:   queryInt(c, "page", 1),
	}
	filter.PageSize = queryInt(c, "pageSize", 12)
	filter.CompanyIDs = parseIntList(c.Query("company"))
	filter.Categories = parseStringList(c.Query("category"))

	if v := c.Query("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &f
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &f
		}
	}

	result, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": result.Items,
	}, result.CurrentPage, filter.PageSize, result.TotalCount)
}

// GetProduct returns one product with its variants and reviews.
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_PARAM", "Invalid product id")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get product")
		return
	}

	utils.Success(c, 200, "Product retrieved successfully", gin.H{"product": product})
}

// GetFacets returns the filter facets: distinct categories of active
// products and the active company list.
func (h *StorefrontHandler) GetFacets(c *gin.Context) {
	facets, err := h.catalogService.ListFacets(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get facets")
		return
	}

	utils.Success(c, 200, "Facets retrieved successfully", facets)
}

// GetSuggestions returns typeahead suggestions for the search box.
func (h *StorefrontHandler) GetSuggestions(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	suggestions, err := h.catalogService.SearchSuggestions(c.Request.Context(), query)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get suggestions")
		return
	}

	utils.Success(c, 200, "Suggestions retrieved successfully", gin.H{
		"suggestions": suggestions,
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseIntList parses a comma-separated id list, skipping malformed entries.
func parseIntList(raw string) []int {
	if raw == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
