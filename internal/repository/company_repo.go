package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// CompanyRepository handles data access for companies.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetByID returns a single company by id.
func (r *CompanyRepository) GetByID(ctx context.Context, id int) (*models.Company, error) {
	const q = `SELECT * FROM companies WHERE id = $1 LIMIT 1`
	var c models.Company
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ExistsName reports whether a company with the exact (case-sensitive) name
// exists, optionally excluding one id for update checks.
func (r *CompanyRepository) ExistsName(ctx context.Context, name string, excludeID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM companies WHERE name = $1 AND id != $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, name, excludeID)
	return exists, err
}

// ListActive returns all active companies sorted by name, for the storefront
// facet list.
func (r *CompanyRepository) ListActive(ctx context.Context) ([]models.Company, error) {
	const q = `SELECT * FROM companies WHERE is_active = true ORDER BY name ASC`
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, q); err != nil {
		return nil, err
	}
	return companies, nil
}

// ListAll returns companies with an optional search filter and pagination,
// including inactive ones, plus the total count.
func (r *CompanyRepository) ListAll(ctx context.Context, search string, page, limit int) ([]models.Company, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	where := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	countQuery := `SELECT COUNT(1) FROM companies ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT * FROM companies %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// Create creates a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	const q = `
        INSERT INTO companies (name, is_active)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q, company.Name, company.IsActive).
		Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

// Update updates an existing company.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	const q = `
        UPDATE companies
        SET name = $1, is_active = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q, company.Name, company.IsActive, company.ID).
		Scan(&company.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrCompanyNotFound
	}
	return err
}

// Delete deletes a company and, via cascade, its owned products, variants,
// and reviews. Orders survive: they reference the catalog only by snapshot.
func (r *CompanyRepository) Delete(ctx context.Context, id int) error {
	const q = `DELETE FROM companies WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return utils.ErrCompanyNotFound
	}
	return nil
}
