package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// VariantRepository handles data access for product variants.
type VariantRepository struct {
	db *sqlx.DB
}

// NewVariantRepository creates a new VariantRepository.
func NewVariantRepository(db *sqlx.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// GetByID returns a single variant by id.
func (r *VariantRepository) GetByID(ctx context.Context, id int) (*models.Variant, error) {
	const q = `SELECT * FROM variants WHERE id = $1 LIMIT 1`
	var v models.Variant
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetByIDInProduct returns a variant scoped to its owning product.
func (r *VariantRepository) GetByIDInProduct(ctx context.Context, variantID, productID int) (*models.Variant, error) {
	const q = `SELECT * FROM variants WHERE id = $1 AND product_id = $2 LIMIT 1`
	var v models.Variant
	if err := r.db.GetContext(ctx, &v, q, variantID, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetByProductID returns all variants of a product.
func (r *VariantRepository) GetByProductID(ctx context.Context, productID int) ([]models.Variant, error) {
	const q = `SELECT * FROM variants WHERE product_id = $1 ORDER BY id ASC`
	var variants []models.Variant
	if err := r.db.SelectContext(ctx, &variants, q, productID); err != nil {
		return nil, err
	}
	return variants, nil
}

// ExistsSKUInCompany reports whether a SKU is already used by any variant in
// the company's full variant set, optionally excluding one variant id.
func (r *VariantRepository) ExistsSKUInCompany(ctx context.Context, companyID int, sku string, excludeID int) (bool, error) {
	const q = `
        SELECT EXISTS(
            SELECT 1
            FROM variants v
            JOIN products p ON p.id = v.product_id
            WHERE p.company_id = $1 AND v.sku = $2 AND v.id != $3
        )`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, companyID, sku, excludeID)
	return exists, err
}

// DecrementStock atomically decrements variant stock, only when enough stock
// remains. Zero rows affected on an existing variant means insufficient
// stock; the decrement is rejected, never clamped.
func (r *VariantRepository) DecrementStock(ctx context.Context, variantID, quantity int) error {
	const q = `
        UPDATE variants
        SET stock = stock - $2, updated_at = NOW()
        WHERE id = $1 AND stock >= $2`

	res, err := r.db.ExecContext(ctx, q, variantID, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := r.exists(ctx, variantID)
		if err != nil {
			return err
		}
		if !exists {
			return utils.ErrVariantNotFound
		}
		return utils.ErrInsufficientStock
	}
	return nil
}

// IncrementStock releases previously reserved variant stock.
func (r *VariantRepository) IncrementStock(ctx context.Context, variantID, quantity int) error {
	const q = `UPDATE variants SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, variantID, quantity)
	return err
}

func (r *VariantRepository) exists(ctx context.Context, id int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM variants WHERE id = $1)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, id)
	return exists, err
}

// Create creates a new variant under a product.
func (r *VariantRepository) Create(ctx context.Context, variant *models.Variant) error {
	const q = `
        INSERT INTO variants (product_id, name, price, stock, sku, unit)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		variant.ProductID,
		variant.Name,
		variant.Price,
		variant.Stock,
		variant.SKU,
		variant.Unit,
	).Scan(&variant.ID, &variant.CreatedAt, &variant.UpdatedAt)
}

// Update updates an existing variant.
func (r *VariantRepository) Update(ctx context.Context, variant *models.Variant) error {
	const q = `
        UPDATE variants
        SET name = $1, price = $2, stock = $3, sku = $4, unit = $5, updated_at = NOW()
        WHERE id = $6
        RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		variant.Name,
		variant.Price,
		variant.Stock,
		variant.SKU,
		variant.Unit,
		variant.ID,
	).Scan(&variant.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrVariantNotFound
	}
	return err
}

// Delete deletes a variant by ID.
func (r *VariantRepository) Delete(ctx context.Context, id int) error {
	const q = `DELETE FROM variants WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return utils.ErrVariantNotFound
	}
	return nil
}
