package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// OrderRepository handles data access for orders and their line-item
// snapshots.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GenerateOrderNumber returns an ID like BM-YYYYMMDD-NNNNNN using the DB date
// to avoid timezone mismatches between app instances.
func (r *OrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	const seqQ = `
        SELECT COALESCE(MAX(
            CAST(SUBSTRING(order_number FROM 13) AS INT)
        ), 0) + 1
        FROM orders
        WHERE order_number LIKE 'BM-' || TO_CHAR(NOW(), 'YYYYMMDD') || '-%'`

	var next int
	if err := r.db.GetContext(ctx, &next, seqQ); err != nil {
		return "", err
	}

	const dateQ = `SELECT 'BM-' || TO_CHAR(NOW(), 'YYYYMMDD') || '-' || LPAD($1::text, 6, '0')`
	var number string
	if err := r.db.GetContext(ctx, &number, dateQ, next); err != nil {
		return "", err
	}
	return number, nil
}

// CreateWithItems persists the order header and all line-item snapshots in a
// single transaction. The snapshots are written exactly as supplied; they are
// never re-read from the catalog afterwards.
func (r *OrderRepository) CreateWithItems(ctx context.Context, order *models.Order) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO orders (order_number, user_id, status, payment_method,
             ship_address, ship_city, ship_postal_code, ship_country,
             items_price, tax_price, shipping_price, total_price)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
         RETURNING id, created_at, updated_at`,
		order.OrderNumber, order.UserID, order.Status, order.PaymentMethod,
		order.ShippingAddress.Address, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country,
		order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, image, price, quantity,
                 variant_id, variant_name, variant_sku, variant_unit)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
             RETURNING id`,
			item.OrderID, item.ProductID, item.Name, item.Image, item.Price, item.Quantity,
			item.VariantID, item.VariantName, item.VariantSKU, item.VariantUnit,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	const q = `
        SELECT id, order_number, user_id, status, payment_method,
               items_price, tax_price, shipping_price, total_price,
               is_paid, paid_at, is_delivered, delivered_at,
               created_at, updated_at,
               ship_address, ship_city, ship_postal_code, ship_country
        FROM orders WHERE id = $1 LIMIT 1`

	var row orderRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	order := row.toOrder()

	items, err := r.itemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListByUser returns a user's orders, newest first, with items, plus the
// total count.
func (r *OrderRepository) ListByUser(ctx context.Context, userID, page, limit int) ([]models.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(1) FROM orders WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	const q = `
        SELECT id, order_number, user_id, status, payment_method,
               items_price, tax_price, shipping_price, total_price,
               is_paid, paid_at, is_delivered, delivered_at,
               created_at, updated_at,
               ship_address, ship_city, ship_postal_code, ship_country
        FROM orders
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, q, userID, limit, offset); err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		order := row.toOrder()
		items, err := r.itemsByOrderID(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
		orders = append(orders, *order)
	}
	return orders, total, nil
}

// UpdateStatus sets the order status and the delivery side effects when the
// target status is Delivered.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	const q = `
        UPDATE orders
        SET status = $2,
            is_delivered = ($2 = 'Delivered'),
            delivered_at = CASE WHEN $2 = 'Delivered' THEN NOW() ELSE delivered_at END,
            updated_at = NOW()
        WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return utils.ErrOrderNotFound
	}
	return nil
}

// MarkPaid sets is_paid/paid_at once; a second webhook delivery for the same
// order matches no row and reports ErrOrderAlreadyPaid.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderNumber string) (*models.Order, error) {
	const q = `
        UPDATE orders
        SET is_paid = true, paid_at = NOW(), updated_at = NOW()
        WHERE order_number = $1 AND is_paid = false
        RETURNING id`

	var id int
	err := r.db.GetContext(ctx, &id, q, orderNumber)
	if err == sql.ErrNoRows {
		// Distinguish unknown order from replayed webhook.
		var exists bool
		if err2 := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber); err2 != nil {
			return nil, err2
		}
		if !exists {
			return nil, utils.ErrOrderNotFound
		}
		return nil, utils.ErrOrderAlreadyPaid
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListUnpaidOlderThan returns Processing orders that are unpaid and older
// than the cutoff, for the reaper worker.
func (r *OrderRepository) ListUnpaidOlderThan(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	const q = `
        SELECT id, order_number, user_id, status, payment_method,
               items_price, tax_price, shipping_price, total_price,
               is_paid, paid_at, is_delivered, delivered_at,
               created_at, updated_at,
               ship_address, ship_city, ship_postal_code, ship_country
        FROM orders
        WHERE status = 'Processing' AND is_paid = false AND created_at < $1
        ORDER BY created_at ASC`

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, q, cutoff); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		order := row.toOrder()
		items, err := r.itemsByOrderID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r *OrderRepository) itemsByOrderID(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY id ASC`
	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, q, orderID); err != nil {
		return nil, err
	}
	return items, nil
}

// orderRow flattens the embedded shipping address for sqlx scanning.
type orderRow struct {
	models.Order
	ShipAddress    string `db:"ship_address"`
	ShipCity       string `db:"ship_city"`
	ShipPostalCode string `db:"ship_postal_code"`
	ShipCountry    string `db:"ship_country"`
}

func (row *orderRow) toOrder() *models.Order {
	order := row.Order
	order.ShippingAddress = models.ShippingAddress{
		Address:    row.ShipAddress,
		City:       row.ShipCity,
		PostalCode: row.ShipPostalCode,
		Country:    row.ShipCountry,
	}
	return &order
}
