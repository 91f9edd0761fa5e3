package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// ReviewStore appends reviews and recomputes the product's rating aggregates
// in the same transaction.
type ReviewStore interface {
	HasReview(ctx context.Context, productID, userID int) (bool, error)
	Append(ctx context.Context, review *models.Review) error
}

// ProductLocator resolves a product inside its owning company.
type ProductLocator interface {
	FindOwningCompanyID(ctx context.Context, productID int) (int, error)
	GetByIDInCompany(ctx context.Context, productID, companyID int) (*models.Product, error)
}

// ReviewService handles customer review submission.
type ReviewService struct {
	reviews  ReviewStore
	products ProductLocator
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews ReviewStore, products ProductLocator) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

// CreateReviewRequest is the submission payload.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// CreateReview appends one review from the user to the product. Each user
// may review a product at most once; the rating must be 1..5. The product's
// average and count are updated atomically with the insert.
func (s *ReviewService) CreateReview(ctx context.Context, productID, userID int, userName string, req *CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, utils.ErrInvalidRating
	}

	companyID, err := s.products.FindOwningCompanyID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByIDInCompany(ctx, productID, companyID)
	if err != nil {
		return nil, err
	}

	exists, err := s.reviews.HasReview(ctx, product.ID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrDuplicateReview
	}

	review := &models.Review{
		ProductID: product.ID,
		UserID:    userID,
		UserName:  userName,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	// Append re-checks the duplicate under the row lock, so a concurrent
	// submission from the same user still loses cleanly.
	if err := s.reviews.Append(ctx, review); err != nil {
		return nil, err
	}

	utils.ReviewsCreatedTotal.Inc()
	log.Info().
		Int("product_id", product.ID).
		Int("user_id", userID).
		Int("rating", req.Rating).
		Msg("Review created")
	return review, nil
}
