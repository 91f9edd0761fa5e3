package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// ReviewHandler handles customer review endpoints.
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReview appends a review to a product for the authenticated user.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_PARAM", "Invalid product id")
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid review payload")
		return
	}

	userID := c.GetInt("user_id")
	userName := c.GetString("user_name")
	review, err := h.reviewService.CreateReview(c.Request.Context(), productID, userID, userName, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidRating):
			utils.Error(c, 400, "INVALID_RATING", "Rating must be between 1 and 5")
		case errors.Is(err, utils.ErrDuplicateReview):
			utils.Error(c, 409, "DUPLICATE_REVIEW", "You have already reviewed this product")
		case errors.Is(err, utils.ErrProductNotFound), errors.Is(err, utils.ErrCompanyNotFound):
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create review")
		}
		return
	}

	utils.Success(c, 201, "Review created successfully", gin.H{"review": review})
}
