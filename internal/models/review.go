package models

import "time"

// Review is a customer rating attached to a product. UserName is a
// point-in-time snapshot of the reviewer's display name captured at creation;
// it is not re-synced when the user renames themselves. At most one review
// per (product, user) pair.
type Review struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"productId"`
	UserID    int       `db:"user_id" json:"userId"`
	UserName  string    `db:"user_name" json:"userName"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
