package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/promo"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

// In-memory fakes for the service collaborators.

type fakeSettings struct {
	gate     settings.Acceptance
	shipping settings.ShippingCost
}

func (f *fakeSettings) Acceptance(context.Context) (settings.Acceptance, error) {
	return f.gate, nil
}

func (f *fakeSettings) SetAcceptance(_ context.Context, a settings.Acceptance) error {
	f.gate = a
	return nil
}

func (f *fakeSettings) ShippingCost(context.Context) (settings.ShippingCost, error) {
	return f.shipping, nil
}

func (f *fakeSettings) SetShippingCost(_ context.Context, c settings.ShippingCost) error {
	f.shipping = c
	return nil
}

type fakeProducts struct {
	products map[int64]product.Product
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

type fakeDiscounts struct {
	rules []discount.Rule
}

func (f *fakeDiscounts) List(context.Context) ([]discount.Rule, error)       { return f.rules, nil }
func (f *fakeDiscounts) ListActive(context.Context) ([]discount.Rule, error) { return f.rules, nil }
func (f *fakeDiscounts) GetByID(context.Context, int64) (*discount.Rule, error) {
	return nil, discount.ErrNotFound
}
func (f *fakeDiscounts) Create(context.Context, *discount.Rule) error { return nil }
func (f *fakeDiscounts) Update(context.Context, *discount.Rule) error { return nil }
func (f *fakeDiscounts) SetActive(context.Context, int64, bool) (*discount.Rule, error) {
	return nil, discount.ErrNotFound
}
func (f *fakeDiscounts) SoftDelete(context.Context, int64) error { return nil }

type fakePromos struct {
	codes map[string]promo.Code
}

func (f *fakePromos) FindByCode(_ context.Context, code string) (*promo.Code, error) {
	c, ok := f.codes[code]
	if !ok {
		return nil, promo.ErrInvalidCode
	}
	return &c, nil
}

type fakeOrders struct {
	nextID   int64
	byID     map[int64]*Order
	byNumber map[string]*Order
	events   map[int64][]StatusEvent
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		byID:     map[int64]*Order{},
		byNumber: map[string]*Order{},
		events:   map[int64][]StatusEvent{},
	}
}

func (f *fakeOrders) Create(_ context.Context, o *Order) error {
	f.nextID++
	o.ID = f.nextID
	f.byID[o.ID] = o
	f.byNumber[o.OrderNumber] = o
	f.events[o.ID] = []StatusEvent{{
		OrderID: o.ID, From: o.Status, To: o.Status,
		Actor: ActorSystem, Notes: "order created", CreatedAt: o.CreatedAt,
	}}
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, &NotFoundError{OrderNumber: ""}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByNumber(_ context.Context, number string) (*Order, error) {
	o, ok := f.byNumber[number]
	if !ok {
		return nil, &NotFoundError{OrderNumber: number}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, o *Order, ev StatusEvent) error {
	stored := f.byID[o.ID]
	*stored = *o
	f.events[o.ID] = append(f.events[o.ID], ev)
	return nil
}

func (f *fakeOrders) ListEvents(_ context.Context, orderID int64) ([]StatusEvent, error) {
	return f.events[orderID], nil
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testService(orders *fakeOrders) *Service {
	svc := NewService(
		&fakeSettings{
			gate:     settings.Acceptance{Open: true},
			shipping: settings.ShippingCost{Amount: money("2.000"), Currency: "KWD"},
		},
		&fakeProducts{products: map[int64]product.Product{
			1: {ID: 1, Title: "Oud Royale", Price: money("20.000"), Currency: "KWD", Active: true},
			2: {ID: 2, Title: "Musk Oil", Price: money("8.000"), Currency: "KWD", Active: true},
			3: {ID: 3, Title: "Retired Bakhoor", Price: money("5.000"), Currency: "KWD", Active: false},
		}},
		&fakeDiscounts{rules: []discount.Rule{{
			ID:      1,
			Name:    "perfume sale",
			Type:    discount.TypePercentage,
			Value:   money("25"),
			ApplyTo: discount.ScopeSpecific, ProductIDs: []int64{1},
			Active:   true,
			Priority: 10,
		}}},
		&fakePromos{codes: map[string]promo.Code{
			"WELCOME10": {
				Code: "WELCOME10", Type: promo.TypePercentage,
				Value: money("10"), Active: true,
			},
		}},
		orders,
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest(items ...CreateItem) CreateRequest {
	return CreateRequest{
		Items:         items,
		PaymentMethod: MethodCOD,
		CustomerName:  "Noor",
		CustomerPhone: "+96550000001",
		Address:       Address{City: "Kuwait City", Block: "3", Street: "Street 12"},
	}
}

func TestCreateAppliesDiscountAndShipping(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	o, err := svc.Create(context.Background(), validRequest(
		CreateItem{ProductID: 1, Quantity: 1},
		CreateItem{ProductID: 2, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"), "order number %s", o.OrderNumber)

	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].UnitPrice.Equal(money("15.000")), "unit price %s", o.Items[0].UnitPrice)
	assert.True(t, o.Items[0].Snapshot.ListPrice.Equal(money("20.000")))
	assert.Equal(t, int64(1), o.Items[0].Snapshot.AppliedRuleID)
	assert.True(t, o.Items[1].UnitPrice.Equal(money("8.000")))

	assert.True(t, o.Subtotal.Equal(money("31.000")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Shipping.Equal(money("2.000")))
	assert.True(t, o.Total.Equal(money("33.000")), "total %s", o.Total)
	require.NoError(t, o.CheckTotals())
}

func TestCreateAppliesPromoCode(t *testing.T) {
	svc := testService(newFakeOrders())

	req := validRequest(CreateItem{ProductID: 2, Quantity: 1})
	req.DiscountCode = "welcome10"

	o, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// Code is normalized to upper case; 10% of 8.000 is 0.800.
	assert.Equal(t, "WELCOME10", o.DiscountCode)
	assert.True(t, o.Discount.Equal(money("0.800")), "discount %s", o.Discount)
	assert.True(t, o.Total.Equal(money("9.200")), "total %s", o.Total)
}

func TestCreateRejectsUnknownPromoCode(t *testing.T) {
	svc := testService(newFakeOrders())

	req := validRequest(CreateItem{ProductID: 2, Quantity: 1})
	req.DiscountCode = "NOSUCH"

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, promo.ErrInvalidCode)
}

func TestCreateClosedGate(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)
	svc.store = &fakeSettings{gate: settings.Acceptance{Open: false, Message: "closed for Eid"}}

	_, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))

	var closed *settings.OrdersClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, "closed for Eid", closed.Message)
	assert.Empty(t, orders.byID, "a gated attempt must not persist anything")
}

func TestCreateValidation(t *testing.T) {
	svc := testService(newFakeOrders())

	_, err := svc.Create(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrEmptyItems)

	_, err = svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 0}))
	var qerr *InvalidQuantityError
	assert.ErrorAs(t, err, &qerr)

	_, err = svc.Create(context.Background(), validRequest(CreateItem{ProductID: 404, Quantity: 1}))
	var perr *ProductNotFoundError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(404), perr.ProductID)
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	svc := testService(newFakeOrders())

	_, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 3, Quantity: 1}))
	var perr *ProductNotFoundError
	assert.ErrorAs(t, err, &perr)
}

func TestCreateGatewayMethodStartsAwaitingPayment(t *testing.T) {
	svc := testService(newFakeOrders())

	req := validRequest(CreateItem{ProductID: 1, Quantity: 1})
	req.PaymentMethod = "knet"

	o, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, o.Status)
}

func TestForceStatusPersistsEvent(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	created, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	o, err := svc.ForceStatus(context.Background(), created.ID, StatusPaid, "manual knet")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)

	events := orders.events[created.ID]
	require.Len(t, events, 2)
	assert.Equal(t, ActorAdmin, events[1].Actor)
	assert.Equal(t, StatusPaid, events[1].To)
	assert.Equal(t, "manual knet", events[1].Notes)
}

func TestForceStatusIllegalLeavesOrderUntouched(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	created, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.ForceStatus(context.Background(), created.ID, StatusDelivered, "")
	var terr *StateTransitionError
	require.ErrorAs(t, err, &terr)

	stored := orders.byID[created.ID]
	assert.Equal(t, StatusPending, stored.Status)
	assert.Len(t, orders.events[created.ID], 1)
}

func TestBulkForceStatusMixedResults(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	first, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 2, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.ForceStatus(context.Background(), second.ID, StatusCancelled, "")
	require.NoError(t, err)

	results := svc.BulkForceStatus(context.Background(),
		[]int64{first.ID, second.ID, 999}, StatusPaid, "batch")
	require.Len(t, results, 3)

	byID := map[int64]error{}
	for _, r := range results {
		byID[r.OrderID] = r.Err
	}
	assert.NoError(t, byID[first.ID])

	var terr *StateTransitionError
	assert.ErrorAs(t, byID[second.ID], &terr, "cancelled order must reject transition")

	var nf *NotFoundError
	assert.ErrorAs(t, byID[999], &nf)

	assert.Equal(t, StatusPaid, orders.byID[first.ID].Status)
	assert.Equal(t, StatusCancelled, orders.byID[second.ID].Status)
}

func TestNewOrderNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		n := NewOrderNumber()
		require.Len(t, n, 12)
		assert.True(t, strings.HasPrefix(n, "ORD-"))
		assert.Equal(t, strings.ToUpper(n), n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
