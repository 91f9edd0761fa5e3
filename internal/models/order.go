package models

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// statusTransitions defines the one-way order lifecycle. There is no path
// back from a terminal state.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move from its current status
// to the target status.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is a standalone record referencing catalog entities only through
// per-item snapshots, so later catalog edits or deletions never alter it.
type Order struct {
	ID            int         `db:"id" json:"id"`
	OrderNumber   string      `db:"order_number" json:"orderNumber"`
	UserID        int         `db:"user_id" json:"userId"`
	Status        OrderStatus `db:"status" json:"status"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`

	ShippingAddress ShippingAddress `db:"-" json:"shippingAddress"`

	// Totals are recorded as supplied by the checkout flow, not recomputed
	// from unit prices.
	ItemsPrice    float64 `db:"items_price" json:"itemsPrice"`
	TaxPrice      float64 `db:"tax_price" json:"taxPrice"`
	ShippingPrice float64 `db:"shipping_price" json:"shippingPrice"`
	TotalPrice    float64 `db:"total_price" json:"totalPrice"`

	IsPaid      bool       `db:"is_paid" json:"isPaid"`
	PaidAt      *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	IsDelivered bool       `db:"is_delivered" json:"isDelivered"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`

	Items []OrderItem `db:"-" json:"items"`
}

// ShippingAddress is embedded in the order row.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem snapshots the purchased product (and variant, when one was
// selected) at the moment of checkout.
type OrderItem struct {
	ID        int     `db:"id" json:"-"`
	OrderID   int     `db:"order_id" json:"-"`
	ProductID int     `db:"product_id" json:"productId"`
	Name      string  `db:"name" json:"name"`
	Image     string  `db:"image" json:"image"`
	Price     float64 `db:"price" json:"price"`
	Quantity  int     `db:"quantity" json:"quantity"`

	// Variant snapshot, nil for variant-less products.
	VariantID   *int    `db:"variant_id" json:"variantId,omitempty"`
	VariantName *string `db:"variant_name" json:"variantName,omitempty"`
	VariantSKU  *string `db:"variant_sku" json:"variantSku,omitempty"`
	VariantUnit *string `db:"variant_unit" json:"variantUnit,omitempty"`
}
