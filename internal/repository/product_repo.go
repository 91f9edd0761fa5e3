package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// ProductRepository handles data access for products, including the
// storefront row space that joins products with their owning companies.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// StorefrontFilter holds the public listing filters. Zero values mean the
// filter is ignored.
type StorefrontFilter struct {
	CompanyIDs []int
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
	Search     string
	Sort       string
	Page       int
	PageSize   int
}

// storefrontRow carries one listing row plus the window-function total so the
// count and the page come from the same query pass.
type storefrontRow struct {
	models.Product
	TotalCount int `db:"total_count"`
}

// sortClause maps a public sort key to an ORDER BY expression. The id
// tiebreaker keeps pagination stable for equal keys.
func sortClause(sort string) string {
	switch sort {
	case "price-asc":
		return "p.base_price ASC, p.id ASC"
	case "price-desc":
		return "p.base_price DESC, p.id ASC"
	case "name-asc":
		return "p.name ASC, p.id ASC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

// storefrontWhere assembles the WHERE clause and positional args for the
// storefront listing. The price range is inclusive on both ends.
func storefrontWhere(filter *StorefrontFilter) (string, []interface{}) {
	where := `WHERE p.is_active = true AND c.is_active = true`
	args := []interface{}{}
	argIdx := 1

	if len(filter.CompanyIDs) > 0 {
		where += fmt.Sprintf(" AND p.company_id = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.CompanyIDs))
		argIdx++
	}
	if len(filter.Categories) > 0 {
		where += fmt.Sprintf(" AND p.category = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.Categories))
		argIdx++
	}
	if filter.MinPrice != nil {
		where += fmt.Sprintf(" AND p.base_price >= $%d", argIdx)
		args = append(args, *filter.MinPrice)
		argIdx++
	}
	if filter.MaxPrice != nil {
		where += fmt.Sprintf(" AND p.base_price <= $%d", argIdx)
		args = append(args, *filter.MaxPrice)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
	}

	return where, args
}

// ListStorefront returns one page of active products of active companies
// matching the filter, together with the total matching count. The total is
// computed with COUNT(*) OVER() in the same statement as the page, so
// concurrent catalog edits cannot produce a count that disagrees with the
// rows it was paged from.
func (r *ProductRepository) ListStorefront(ctx context.Context, filter *StorefrontFilter) ([]models.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 12
	}
	offset := (filter.Page - 1) * filter.PageSize

	where, args := storefrontWhere(filter)
	argIdx := len(args) + 1

	query := fmt.Sprintf(`
        SELECT p.*, c.name AS company_name, COUNT(*) OVER() AS total_count
        FROM products p
        JOIN companies c ON c.id = p.company_id
        %s
        ORDER BY %s
        LIMIT $%d OFFSET $%d`,
		where, sortClause(filter.Sort), argIdx, argIdx+1)
	pageArgs := append(append([]interface{}{}, args...), filter.PageSize, offset)

	var rows []storefrontRow
	if err := r.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, err
	}

	total := 0
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		total = row.TotalCount
		products = append(products, row.Product)
	}

	// An empty page past the end still needs the real total.
	if len(rows) == 0 && filter.Page > 1 {
		countQuery := `
            SELECT COUNT(1)
            FROM products p
            JOIN companies c ON c.id = p.company_id ` + where
		if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}

// GetDetail returns a single product with its owning company name and the
// number of variants it carries.
func (r *ProductRepository) GetDetail(ctx context.Context, id int) (*models.Product, error) {
	const q = `
        SELECT p.*, c.name AS company_name,
               (SELECT COUNT(1) FROM variants v WHERE v.product_id = p.id) AS variant_count
        FROM products p
        JOIN companies c ON c.id = p.company_id
        WHERE p.id = $1
        LIMIT 1`

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindOwningCompanyID returns the id of the company that owns a product.
func (r *ProductRepository) FindOwningCompanyID(ctx context.Context, productID int) (int, error) {
	const q = `SELECT company_id FROM products WHERE id = $1 LIMIT 1`
	var companyID int
	if err := r.db.GetContext(ctx, &companyID, q, productID); err != nil {
		if err == sql.ErrNoRows {
			return 0, utils.ErrCompanyNotFound
		}
		return 0, err
	}
	return companyID, nil
}

// GetByIDInCompany returns a product scoped to its owning company, with the
// variant count needed for the purchase-path invariant.
func (r *ProductRepository) GetByIDInCompany(ctx context.Context, productID, companyID int) (*models.Product, error) {
	const q = `
        SELECT p.*,
               (SELECT COUNT(1) FROM variants v WHERE v.product_id = p.id) AS variant_count
        FROM products p
        WHERE p.id = $1 AND p.company_id = $2
        LIMIT 1`

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, productID, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetActiveCategories returns the distinct categories across active products
// of active companies, sorted ascending.
func (r *ProductRepository) GetActiveCategories(ctx context.Context) ([]string, error) {
	const q = `
        SELECT DISTINCT p.category
        FROM products p
        JOIN companies c ON c.id = p.company_id
        WHERE p.is_active = true AND c.is_active = true AND p.category != ''
        ORDER BY p.category ASC`

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, q); err != nil {
		return nil, err
	}
	return categories, nil
}

// SearchProductNames returns distinct active product names matching the
// query, case-insensitively, up to limit.
func (r *ProductRepository) SearchProductNames(ctx context.Context, search string, limit int) ([]string, error) {
	const q = `
        SELECT DISTINCT p.name
        FROM products p
        JOIN companies c ON c.id = p.company_id
        WHERE p.is_active = true AND c.is_active = true AND p.name ILIKE $1
        ORDER BY p.name ASC
        LIMIT $2`

	var names []string
	if err := r.db.SelectContext(ctx, &names, q, "%"+search+"%", limit); err != nil {
		return nil, err
	}
	return names, nil
}

// SearchCategories returns distinct active categories matching the query, up
// to limit.
func (r *ProductRepository) SearchCategories(ctx context.Context, search string, limit int) ([]string, error) {
	const q = `
        SELECT DISTINCT p.category
        FROM products p
        JOIN companies c ON c.id = p.company_id
        WHERE p.is_active = true AND c.is_active = true AND p.category != '' AND p.category ILIKE $1
        ORDER BY p.category ASC
        LIMIT $2`

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, q, "%"+search+"%", limit); err != nil {
		return nil, err
	}
	return categories, nil
}

// DecrementStock atomically decrements a variant-less product's base stock,
// only when enough stock remains. Returns ErrInsufficientStock when the
// conditional update matches no row while the product exists.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID, quantity int) error {
	const q = `
        UPDATE products
        SET stock = stock - $2, updated_at = NOW()
        WHERE id = $1 AND stock >= $2`

	res, err := r.db.ExecContext(ctx, q, productID, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := r.exists(ctx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return utils.ErrProductNotFound
		}
		return utils.ErrInsufficientStock
	}
	return nil
}

// IncrementStock releases previously reserved base stock.
func (r *ProductRepository) IncrementStock(ctx context.Context, productID, quantity int) error {
	const q = `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, productID, quantity)
	return err
}

// attributesArg passes JSONB as text so the driver does not encode it as
// bytea; empty payloads become NULL for the COALESCE default.
func attributesArg(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (r *ProductRepository) exists(ctx context.Context, id int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, id)
	return exists, err
}

// Create creates a new product under a company.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	const q = `
        INSERT INTO products (company_id, name, description, category, base_price, mrp, stock, is_active, attributes, images)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, '[]'::jsonb), $10)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		product.CompanyID,
		product.Name,
		product.Description,
		product.Category,
		product.BasePrice,
		product.MRP,
		product.Stock,
		product.IsActive,
		attributesArg(product.Attributes),
		pq.Array([]string(product.Images)),
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// Update updates an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	const q = `
        UPDATE products
        SET name = $1, description = $2, category = $3, base_price = $4,
            mrp = $5, stock = $6, is_active = $7,
            attributes = COALESCE($8, attributes), images = $9,
            updated_at = NOW()
        WHERE id = $10
        RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		product.Name,
		product.Description,
		product.Category,
		product.BasePrice,
		product.MRP,
		product.Stock,
		product.IsActive,
		attributesArg(product.Attributes),
		pq.Array([]string(product.Images)),
		product.ID,
	).Scan(&product.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrProductNotFound
	}
	return err
}

// AdminCatalogFilter holds filters for the admin catalog listing.
type AdminCatalogFilter struct {
	CompanyID int
	Category  string
	Search    string
	IsActive  *bool
	Page      int
	PageSize  int
}

// AdminCatalogRow is one unrolled product×variant row for the admin listing.
// Variant columns are nil for variant-less products.
type AdminCatalogRow struct {
	ProductID    int      `db:"product_id" json:"productId"`
	ProductName  string   `db:"product_name" json:"productName"`
	Category     string   `db:"category" json:"category"`
	CompanyID    int      `db:"company_id" json:"companyId"`
	CompanyName  string   `db:"company_name" json:"companyName"`
	BasePrice    float64  `db:"base_price" json:"basePrice"`
	BaseStock    int      `db:"base_stock" json:"baseStock"`
	IsActive     bool     `db:"is_active" json:"isActive"`
	VariantID    *int     `db:"variant_id" json:"variantId,omitempty"`
	VariantName  *string  `db:"variant_name" json:"variantName,omitempty"`
	VariantSKU   *string  `db:"variant_sku" json:"variantSku,omitempty"`
	VariantPrice *float64 `db:"variant_price" json:"variantPrice,omitempty"`
	VariantStock *int     `db:"variant_stock" json:"variantStock,omitempty"`

	TotalCount int `db:"total_count" json:"-"`
}

// ListAdmin unrolls every product's variant list into row form for the admin
// listing, inactive records included. Pagination applies to the unrolled
// rows; the total comes from the same pass.
func (r *ProductRepository) ListAdmin(ctx context.Context, filter *AdminCatalogFilter) ([]AdminCatalogRow, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	offset := (filter.Page - 1) * filter.PageSize

	where := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.CompanyID > 0 {
		where += fmt.Sprintf(" AND p.company_id = $%d", argIdx)
		args = append(args, filter.CompanyID)
		argIdx++
	}
	if filter.Category != "" {
		where += fmt.Sprintf(" AND p.category = $%d", argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (p.name ILIKE $%d OR v.name ILIKE $%d OR v.sku ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND p.is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	query := fmt.Sprintf(`
        SELECT p.id AS product_id, p.name AS product_name, p.category,
               p.company_id, c.name AS company_name,
               p.base_price, p.stock AS base_stock, p.is_active,
               v.id AS variant_id, v.name AS variant_name, v.sku AS variant_sku,
               v.price AS variant_price, v.stock AS variant_stock,
               COUNT(*) OVER() AS total_count
        FROM products p
        JOIN companies c ON c.id = p.company_id
        LEFT JOIN variants v ON v.product_id = p.id
        %s
        ORDER BY c.name ASC, p.name ASC, v.id ASC NULLS FIRST
        LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, filter.PageSize, offset)

	var rows []AdminCatalogRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	total := 0
	if len(rows) > 0 {
		total = rows[0].TotalCount
	}

	// An empty page past the end still needs the real total.
	if len(rows) == 0 && filter.Page > 1 {
		countQuery := `
            SELECT COUNT(1)
            FROM products p
            JOIN companies c ON c.id = p.company_id
            LEFT JOIN variants v ON v.product_id = p.id ` + where
		if err := r.db.GetContext(ctx, &total, countQuery, args[:argIdx-1]...); err != nil {
			return nil, 0, err
		}
	}

	return rows, total, nil
}

// Delete deletes a product by ID. Variants and reviews go with it via
// cascade; historical order items keep their snapshots.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	const q = `DELETE FROM products WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}
