package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// ReviewRepository handles data access for product reviews and the derived
// rating aggregates on the owning product.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetByProductID returns all reviews of a product, newest first.
func (r *ReviewRepository) GetByProductID(ctx context.Context, productID int) ([]models.Review, error) {
	const q = `SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, q, productID); err != nil {
		return nil, err
	}
	return reviews, nil
}

// HasReview reports whether a user already reviewed a product.
func (r *ReviewRepository) HasReview(ctx context.Context, productID, userID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, productID, userID)
	return exists, err
}

// Append inserts a review and recomputes the owning product's rating
// aggregates in one transaction. The product row is locked first so two
// concurrent reviews cannot interleave their read-modify-write cycles; the
// duplicate check is repeated under the lock to close the race with a
// concurrent submission by the same user.
func (r *ReviewRepository) Append(ctx context.Context, review *models.Review) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the owning product for the duration of the append.
	var productID int
	err = tx.GetContext(ctx, &productID,
		`SELECT id FROM products WHERE id = $1 FOR UPDATE`, review.ProductID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.ErrProductNotFound
		}
		return err
	}

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`,
		review.ProductID, review.UserID)
	if err != nil {
		return err
	}
	if exists {
		err = utils.ErrDuplicateReview
		return err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO reviews (product_id, user_id, user_name, rating, comment)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return err
	}

	// Recompute aggregates from the full review set so the stored values can
	// never drift from the mean/count invariant.
	_, err = tx.ExecContext(ctx,
		`UPDATE products
         SET ratings_quantity = sub.qty,
             ratings_average  = sub.avg,
             updated_at = NOW()
         FROM (
             SELECT COUNT(1) AS qty, COALESCE(AVG(rating), 0) AS avg
             FROM reviews WHERE product_id = $1
         ) sub
         WHERE products.id = $1`,
		review.ProductID,
	)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	return nil
}
