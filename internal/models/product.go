package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Product is a sellable item owned by exactly one company.
// When a product has variants, purchase and stock operations go through the
// selected variant; the base Stock field is authoritative only for
// variant-less products.
type Product struct {
	ID          int             `db:"id" json:"id"`
	CompanyID   int             `db:"company_id" json:"companyId"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	BasePrice   float64         `db:"base_price" json:"basePrice"`
	MRP         *float64        `db:"mrp" json:"mrp,omitempty"`
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	Attributes  json.RawMessage `db:"attributes" json:"attributes,omitempty"`
	Images      pq.StringArray  `db:"images" json:"images"`

	// Derived rating aggregates, recomputed whenever a review is appended.
	RatingsAverage  float64 `db:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int     `db:"ratings_quantity" json:"ratingsQuantity"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Populated by joins, not stored on the products table.
	CompanyName  string    `db:"company_name" json:"companyName,omitempty"`
	VariantCount int       `db:"variant_count" json:"-"`
	Variants     []Variant `db:"-" json:"variants,omitempty"`
	Reviews      []Review  `db:"-" json:"reviews,omitempty"`
}

// Attribute is a free-form name/value pair stored in the product's
// attributes JSONB column.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HasVariants reports whether stock operations must go through a variant.
func (p *Product) HasVariants() bool {
	return p.VariantCount > 0 || len(p.Variants) > 0
}
