package models

import "time"

// Company is the top-level catalog owner. Every product belongs to exactly
// one company; names are globally unique and inactive companies are hidden
// from the storefront together with everything they own.
type Company struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
