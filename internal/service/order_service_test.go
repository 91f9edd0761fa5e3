package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// fakeProductInventory keeps products in memory and applies the same
// conditional decrement semantics as the SQL layer.
type fakeProductInventory struct {
	products map[int]*models.Product
}

func (f *fakeProductInventory) FindOwningCompanyID(_ context.Context, productID int) (int, error) {
	p, ok := f.products[productID]
	if !ok {
		return 0, utils.ErrProductNotFound
	}
	return p.CompanyID, nil
}

func (f *fakeProductInventory) GetByIDInCompany(_ context.Context, productID, companyID int) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok || p.CompanyID != companyID {
		return nil, utils.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductInventory) DecrementStock(_ context.Context, productID, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return utils.ErrProductNotFound
	}
	if p.Stock < quantity {
		return utils.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeProductInventory) IncrementStock(_ context.Context, productID, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return utils.ErrProductNotFound
	}
	p.Stock += quantity
	return nil
}

type fakeVariantInventory struct {
	variants map[int]*models.Variant
}

func (f *fakeVariantInventory) GetByIDInProduct(_ context.Context, variantID, productID int) (*models.Variant, error) {
	v, ok := f.variants[variantID]
	if !ok || v.ProductID != productID {
		return nil, utils.ErrVariantNotFound
	}
	cv := *v
	return &cv, nil
}

func (f *fakeVariantInventory) DecrementStock(_ context.Context, variantID, quantity int) error {
	v, ok := f.variants[variantID]
	if !ok {
		return utils.ErrVariantNotFound
	}
	if v.Stock < quantity {
		return utils.ErrInsufficientStock
	}
	v.Stock -= quantity
	return nil
}

func (f *fakeVariantInventory) IncrementStock(_ context.Context, variantID, quantity int) error {
	v, ok := f.variants[variantID]
	if !ok {
		return utils.ErrVariantNotFound
	}
	v.Stock += quantity
	return nil
}

type fakeOrderStore struct {
	orders  map[int]*models.Order
	byNum   map[string]*models.Order
	nextID  int
	nextSeq int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: map[int]*models.Order{},
		byNum:  map[string]*models.Order{},
	}
}

func (f *fakeOrderStore) GenerateOrderNumber(_ context.Context) (string, error) {
	f.nextSeq++
	return fmt.Sprintf("BM-%s-%06d", time.Now().UTC().Format("20060102"), f.nextSeq), nil
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, order *models.Order) error {
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	f.byNum[order.OrderNumber] = order
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID, page, limit int) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id int, status models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return utils.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, orderNumber string) (*models.Order, error) {
	o, ok := f.byNum[orderNumber]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	if o.IsPaid {
		return nil, utils.ErrOrderAlreadyPaid
	}
	now := time.Now()
	o.IsPaid = true
	o.PaidAt = &now
	return o, nil
}

func (f *fakeOrderStore) ListUnpaidOlderThan(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.Status == models.OrderStatusProcessing && !o.IsPaid && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func newOrderFixture() (*OrderService, *fakeProductInventory, *fakeVariantInventory, *fakeOrderStore) {
	products := &fakeProductInventory{products: map[int]*models.Product{
		1: {ID: 1, CompanyID: 10, Name: "Portland Cement", BasePrice: 85000, Stock: 10},
		2: {ID: 2, CompanyID: 10, Name: "Interior Paint", BasePrice: 120000, Stock: 0, VariantCount: 2},
	}}
	variants := &fakeVariantInventory{variants: map[int]*models.Variant{
		21: {ID: 21, ProductID: 2, Name: "1 Liter", Price: 120000, Stock: 5},
		22: {ID: 22, ProductID: 2, Name: "5 Liter", Price: 480000, Stock: 2},
	}}
	orders := newFakeOrderStore()
	return NewOrderService(orders, products, variants), products, variants, orders
}

func TestPlaceOrderDecrementsStock(t *testing.T) {
	svc, products, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 4}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)

	assert.Equal(t, 6, products.products[1].Stock)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Portland Cement", order.Items[0].Name)
	assert.Equal(t, 85000.0, order.Items[0].Price)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	svc, products, _, orders := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 11}},
		PaymentMethod: "transfer",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInsufficientStock))

	// Stock untouched, no order written.
	assert.Equal(t, 10, products.products[1].Stock)
	assert.Empty(t, orders.orders)
}

func TestPlaceOrderReleasesEarlierReservationsOnFailure(t *testing.T) {
	svc, products, variants, orders := newOrderFixture()

	variantID := 21
	_, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items: []LineItemRequest{
			{ProductID: 1, Quantity: 4},
			{ProductID: 2, VariantID: &variantID, Quantity: 6}, // only 5 in stock
		},
		PaymentMethod: "transfer",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInsufficientStock))

	// The first item's reservation was rolled back.
	assert.Equal(t, 10, products.products[1].Stock)
	assert.Equal(t, 5, variants.variants[21].Stock)
	assert.Empty(t, orders.orders)
}

func TestPlaceOrderVariantRequired(t *testing.T) {
	svc, _, _, orders := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 2, Quantity: 1}},
		PaymentMethod: "transfer",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrVariantRequired))
	assert.Empty(t, orders.orders)
}

func TestPlaceOrderVariantSnapshot(t *testing.T) {
	svc, _, variants, _ := newOrderFixture()

	variantID := 22
	order, err := svc.PlaceOrder(context.Background(), 7, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 2, VariantID: &variantID, Quantity: 2}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)

	item := order.Items[0]
	assert.Equal(t, 480000.0, item.Price)
	require.NotNil(t, item.VariantName)
	assert.Equal(t, "5 Liter", *item.VariantName)
	assert.Equal(t, 0, variants.variants[22].Stock)
}

func TestGetOrderForUserOwnership(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)

	// Another customer cannot read it, an admin can.
	_, err = svc.GetOrderForUser(context.Background(), order.ID, 2, false)
	assert.True(t, errors.Is(err, utils.ErrOrderNotFound))

	got, err := svc.GetOrderForUser(context.Background(), order.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, products, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 4}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, products.products[1].Stock)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	// Shipped orders cannot go back to Processing.
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing)
	assert.True(t, errors.Is(err, utils.ErrInvalidStatusTransition))

	// Delivered is terminal.
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, utils.ErrInvalidStatusTransition))
}

func TestCancelUnpaidOrderReleasesStock(t *testing.T) {
	svc, products, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 4}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, products.products[1].Stock)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 10, products.products[1].Stock)
}

func TestCancelPaidOrderKeepsStock(t *testing.T) {
	svc, products, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 4}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 6, products.products[1].Stock)
}

func TestMarkPaidRejectsReplay(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	_, err = svc.MarkPaid(context.Background(), order.OrderNumber)
	assert.True(t, errors.Is(err, utils.ErrOrderAlreadyPaid))
}

func TestCancelStaleReleasesStock(t *testing.T) {
	svc, products, _, orders := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		Items:         []LineItemRequest{{ProductID: 1, Quantity: 3}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, products.products[1].Stock)

	// Age the order past the cutoff.
	orders.orders[order.ID].CreatedAt = time.Now().Add(-48 * time.Hour)

	cancelled, err := svc.CancelStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 10, products.products[1].Stock)
	assert.Equal(t, models.OrderStatusCancelled, orders.orders[order.ID].Status)
}
