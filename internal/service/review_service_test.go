package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// fakeReviewStore mirrors the transactional append: the insert and the
// aggregate recompute happen as one step.
type fakeReviewStore struct {
	products map[int]*models.Product
	reviews  []models.Review
	nextID   int
}

func (f *fakeReviewStore) HasReview(_ context.Context, productID, userID int) (bool, error) {
	for _, r := range f.reviews {
		if r.ProductID == productID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewStore) Append(_ context.Context, review *models.Review) error {
	if ok, _ := f.HasReview(context.Background(), review.ProductID, review.UserID); ok {
		return utils.ErrDuplicateReview
	}
	f.nextID++
	review.ID = f.nextID
	f.reviews = append(f.reviews, *review)

	sum, count := 0, 0
	for _, r := range f.reviews {
		if r.ProductID == review.ProductID {
			sum += r.Rating
			count++
		}
	}
	p := f.products[review.ProductID]
	p.RatingsQuantity = count
	p.RatingsAverage = float64(sum) / float64(count)
	return nil
}

func newReviewFixture() (*ReviewService, *fakeReviewStore) {
	products := map[int]*models.Product{
		2: {ID: 2, CompanyID: 10, Name: "Interior Paint"},
	}
	store := &fakeReviewStore{products: products}
	inventory := &fakeProductInventory{products: products}
	return NewReviewService(store, inventory), store
}

func TestCreateReviewUpdatesAggregates(t *testing.T) {
	svc, store := newReviewFixture()

	review, err := svc.CreateReview(context.Background(), 2, 1, "Ana", &CreateReviewRequest{Rating: 4, Comment: "covers well"})
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, 1, store.products[2].RatingsQuantity)
	assert.Equal(t, 4.0, store.products[2].RatingsAverage)

	_, err = svc.CreateReview(context.Background(), 2, 2, "Budi", &CreateReviewRequest{Rating: 2, Comment: "thin coat"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.products[2].RatingsQuantity)
	assert.Equal(t, 3.0, store.products[2].RatingsAverage)
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	svc, store := newReviewFixture()

	_, err := svc.CreateReview(context.Background(), 2, 1, "Ana", &CreateReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), 2, 1, "Ana", &CreateReviewRequest{Rating: 1, Comment: "changed my mind"})
	assert.True(t, errors.Is(err, utils.ErrDuplicateReview))

	// Aggregates unchanged by the rejected submission.
	assert.Equal(t, 1, store.products[2].RatingsQuantity)
	assert.Equal(t, 5.0, store.products[2].RatingsAverage)
}

func TestCreateReviewValidatesRating(t *testing.T) {
	svc, store := newReviewFixture()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), 2, 1, "Ana", &CreateReviewRequest{Rating: rating, Comment: "x"})
		assert.True(t, errors.Is(err, utils.ErrInvalidRating))
	}
	assert.Empty(t, store.reviews)
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	svc, _ := newReviewFixture()

	_, err := svc.CreateReview(context.Background(), 99, 1, "Ana", &CreateReviewRequest{Rating: 3, Comment: "x"})
	assert.True(t, errors.Is(err, utils.ErrProductNotFound))
}
