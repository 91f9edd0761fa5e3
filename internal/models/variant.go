package models

import "time"

// Variant is a purchasable option of a product (size, color, pack) with its
// own price and stock. Stock never goes negative: decrements are conditional
// and rejected when insufficient, not clamped.
type Variant struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"productId"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	SKU       *string   `db:"sku" json:"sku,omitempty"`
	Unit      *string   `db:"unit" json:"unit,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
