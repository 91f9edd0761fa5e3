package utils

import "errors"

// Common application errors used across services. Handlers map these to
// stable API error codes; none of them leak storage internals.
var (
	// Not-found conditions, detected before any mutation.
	ErrCompanyNotFound = errors.New("COMPANY_NOT_FOUND")
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")
	ErrVariantNotFound = errors.New("VARIANT_NOT_FOUND")
	ErrOrderNotFound   = errors.New("ORDER_NOT_FOUND")
	ErrUserNotFound    = errors.New("USER_NOT_FOUND")

	// Inventory
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")
	ErrVariantRequired   = errors.New("VARIANT_REQUIRED")

	// Reviews
	ErrDuplicateReview = errors.New("DUPLICATE_REVIEW")
	ErrInvalidRating   = errors.New("INVALID_RATING")

	// Catalog writes
	ErrDuplicateCompanyName = errors.New("DUPLICATE_COMPANY_NAME")
	ErrDuplicateSKU         = errors.New("DUPLICATE_SKU")

	// Orders
	ErrInvalidStatusTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrOrderAlreadyPaid        = errors.New("ORDER_ALREADY_PAID")

	// Auth
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrDuplicateEmail     = errors.New("DUPLICATE_EMAIL")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
)
