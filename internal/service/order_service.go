package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// OrderStore is the order persistence surface used by the service.
type OrderStore interface {
	GenerateOrderNumber(ctx context.Context) (string, error)
	CreateWithItems(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	ListByUser(ctx context.Context, userID, page, limit int) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error
	MarkPaid(ctx context.Context, orderNumber string) (*models.Order, error)
	ListUnpaidOlderThan(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

// ProductInventory locates products within their owning company and mutates
// base stock with conditional decrements.
type ProductInventory interface {
	FindOwningCompanyID(ctx context.Context, productID int) (int, error)
	GetByIDInCompany(ctx context.Context, productID, companyID int) (*models.Product, error)
	DecrementStock(ctx context.Context, productID, quantity int) error
	IncrementStock(ctx context.Context, productID, quantity int) error
}

// VariantInventory locates variants within their owning product and mutates
// variant stock with conditional decrements.
type VariantInventory interface {
	GetByIDInProduct(ctx context.Context, variantID, productID int) (*models.Variant, error)
	DecrementStock(ctx context.Context, variantID, quantity int) error
	IncrementStock(ctx context.Context, variantID, quantity int) error
}

// OrderService places orders against the catalog with stock reservation and
// release-on-failure compensation.
type OrderService struct {
	orders   OrderStore
	products ProductInventory
	variants VariantInventory
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders OrderStore, products ProductInventory, variants VariantInventory) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		variants: variants,
	}
}

// LineItemRequest is one requested product-or-variant quantity at checkout.
type LineItemRequest struct {
	ProductID int    `json:"productId" binding:"required"`
	VariantID *int   `json:"variantId"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Image     string `json:"image"`
}

// PlaceOrderRequest carries the full checkout payload. Price totals are
// recorded as supplied by the client, not recomputed.
type PlaceOrderRequest struct {
	Items           []LineItemRequest      `json:"items" binding:"required,min=1"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

// reservation records one committed stock decrement so it can be released if
// a later item fails.
type reservation struct {
	productID int
	variantID *int
	quantity  int
}

// PlaceOrder validates and reserves stock for every line item in the
// caller-supplied order, then persists the order with per-item snapshots.
// Items are processed sequentially; each decrement is an atomic conditional
// update, and on any failure every prior reservation is released before the
// error is returned. No order record is written unless all items reserve.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, req *PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		utils.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, utils.ErrProductNotFound
	}

	start := time.Now()
	var reserved []reservation
	items := make([]models.OrderItem, 0, len(req.Items))

	for _, line := range req.Items {
		item, res, err := s.reserveLineItem(ctx, &line)
		if err != nil {
			s.releaseAll(ctx, reserved)
			utils.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
			utils.StockReservationLatency.Observe(time.Since(start).Seconds())
			return nil, err
		}
		reserved = append(reserved, *res)
		items = append(items, *item)
	}
	utils.StockReservationLatency.Observe(time.Since(start).Seconds())

	orderNumber, err := s.orders.GenerateOrderNumber(ctx)
	if err != nil {
		s.releaseAll(ctx, reserved)
		utils.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Status:          models.OrderStatusProcessing,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		ItemsPrice:      req.ItemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		TotalPrice:      req.TotalPrice,
		Items:           items,
	}

	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		// The reservations are already committed; release them so a failed
		// write does not strand stock.
		s.releaseAll(ctx, reserved)
		utils.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}

	utils.OrdersPlacedTotal.Inc()
	log.Info().
		Str("order_number", order.OrderNumber).
		Int("user_id", userID).
		Int("items", len(order.Items)).
		Msg("Order placed")
	return order, nil
}

// reserveLineItem locates the owning company, the product, and (when
// selected) the variant, then commits one conditional stock decrement. The
// returned snapshot captures the catalog's name/price/SKU at this moment.
func (s *OrderService) reserveLineItem(ctx context.Context, line *LineItemRequest) (*models.OrderItem, *reservation, error) {
	if line.Quantity <= 0 {
		return nil, nil, utils.ErrInsufficientStock
	}

	companyID, err := s.products.FindOwningCompanyID(ctx, line.ProductID)
	if err != nil {
		return nil, nil, err
	}

	product, err := s.products.GetByIDInCompany(ctx, line.ProductID, companyID)
	if err != nil {
		return nil, nil, err
	}

	item := &models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     line.Image,
		Price:     product.BasePrice,
		Quantity:  line.Quantity,
	}
	if item.Image == "" && len(product.Images) > 0 {
		item.Image = product.Images[0]
	}

	if line.VariantID != nil {
		variant, err := s.variants.GetByIDInProduct(ctx, *line.VariantID, product.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := s.variants.DecrementStock(ctx, variant.ID, line.Quantity); err != nil {
			if errors.Is(err, utils.ErrInsufficientStock) {
				log.Warn().
					Str("product", product.Name).
					Str("variant", variant.Name).
					Int("requested", line.Quantity).
					Int("available", variant.Stock).
					Msg("Insufficient variant stock")
				utils.StockReservationsFailed.WithLabelValues("insufficient_stock").Inc()
			}
			return nil, nil, err
		}

		item.Price = variant.Price
		item.VariantID = &variant.ID
		item.VariantName = &variant.Name
		item.VariantSKU = variant.SKU
		item.VariantUnit = variant.Unit
		return item, &reservation{productID: product.ID, variantID: &variant.ID, quantity: line.Quantity}, nil
	}

	// Base stock is only authoritative for variant-less products.
	if product.HasVariants() {
		return nil, nil, utils.ErrVariantRequired
	}

	if err := s.products.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
		if errors.Is(err, utils.ErrInsufficientStock) {
			log.Warn().
				Str("product", product.Name).
				Int("requested", line.Quantity).
				Int("available", product.Stock).
				Msg("Insufficient product stock")
			utils.StockReservationsFailed.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, nil, err
	}
	return item, &reservation{productID: product.ID, quantity: line.Quantity}, nil
}

// releaseAll returns previously reserved stock, in reverse reservation
// order. Release failures are logged, not propagated: the caller is already
// unwinding an error.
func (s *OrderService) releaseAll(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		res := reserved[i]
		var err error
		if res.variantID != nil {
			err = s.variants.IncrementStock(ctx, *res.variantID, res.quantity)
		} else {
			err = s.products.IncrementStock(ctx, res.productID, res.quantity)
		}
		if err != nil {
			log.Error().Err(err).
				Int("product_id", res.productID).
				Int("quantity", res.quantity).
				Msg("Failed to release reserved stock")
		}
	}
}

// failureReason maps an error to a bounded metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, utils.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, utils.ErrCompanyNotFound),
		errors.Is(err, utils.ErrProductNotFound),
		errors.Is(err, utils.ErrVariantNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrVariantRequired):
		return "validation"
	default:
		return "db_error"
	}
}

// GetOrderForUser returns an order visible to the requesting user. Only the
// order's owner or an admin may read it.
func (s *OrderService) GetOrderForUser(ctx context.Context, orderID, userID int, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, utils.ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersForUser returns the user's own orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID, page, limit int) ([]models.Order, int, error) {
	return s.orders.ListByUser(ctx, userID, page, limit)
}

// UpdateStatus moves an order along its one-way lifecycle. Cancelling an
// unpaid order releases the stock its items still hold.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int, target models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(target) {
		return nil, utils.ErrInvalidStatusTransition
	}

	if err := s.orders.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, err
	}

	if target == models.OrderStatusCancelled {
		if !order.IsPaid {
			s.releaseAll(ctx, reservationsFromItems(order.Items))
		}
		utils.OrdersCancelledTotal.Inc()
	}

	return s.orders.GetByID(ctx, orderID)
}

// MarkPaid records a verified payment notification on the order. Replayed
// notifications are rejected with ErrOrderAlreadyPaid.
func (s *OrderService) MarkPaid(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orders.MarkPaid(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	utils.OrdersPaidTotal.Inc()
	log.Info().Str("order_number", orderNumber).Msg("Order marked paid")
	return order, nil
}

// CancelStale cancels Processing orders that stayed unpaid past maxAge and
// releases their stock. Called by the reaper worker. Returns how many orders
// were cancelled.
func (s *OrderService) CancelStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.orders.ListUnpaidOlderThan(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range stale {
		order := &stale[i]
		if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to cancel stale order")
			continue
		}
		s.releaseAll(ctx, reservationsFromItems(order.Items))
		utils.OrdersCancelledTotal.Inc()
		cancelled++
	}
	return cancelled, nil
}

// reservationsFromItems rebuilds the reservation list held by an order's
// line items so their stock can be released on cancellation.
func reservationsFromItems(items []models.OrderItem) []reservation {
	reserved := make([]reservation, 0, len(items))
	for _, item := range items {
		reserved = append(reserved, reservation{
			productID: item.ProductID,
			variantID: item.VariantID,
			quantity:  item.Quantity,
		})
	}
	return reserved
}
