package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// UserRepository handles data access for storefront users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT * FROM users WHERE email = $1 LIMIT 1`
	var u models.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	const q = `SELECT * FROM users WHERE id = $1 LIMIT 1`
	var u models.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsEmail reports whether the email is already registered.
func (r *UserRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, email)
	return exists, err
}

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
        INSERT INTO users (name, email, password_hash, is_admin, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		user.Name, user.Email, user.PasswordHash, user.IsAdmin, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}
