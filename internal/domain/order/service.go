package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/promo"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

// Sentinel errors for order creation validation.
var (
	ErrEmptyItems = errors.New("items required")
)

// ProductNotFoundError indicates a requested product does not exist or is
// not available for sale.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return errors.Errorf("product %d not found", e.ProductID).Error()
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return errors.Errorf("quantity must be greater than 0 for product %d", e.ProductID).Error()
}

// MethodCOD is the cash-on-delivery payment method code. COD orders start
// pending; gateway-routed methods start awaiting_payment.
const MethodCOD = "cod"

// InitialStatus picks the initial order status for a payment method code.
func InitialStatus(methodCode string) Status {
	if methodCode == MethodCOD {
		return StatusPending
	}
	return StatusAwaitingPayment
}

// CreateItem is one requested line in a new order.
type CreateItem struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Items         []CreateItem
	DiscountCode  string
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Address       Address
}

// Service encapsulates order creation and status transitions.
type Service struct {
	store     settings.Store
	products  product.Repository
	discounts discount.Repository
	promos    promo.Repository
	orders    Repository
	now       func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	store settings.Store,
	products product.Repository,
	discounts discount.Repository,
	promos promo.Repository,
	orders Repository,
) *Service {
	return &Service{
		store:     store,
		products:  products,
		discounts: discounts,
		promos:    promos,
		orders:    orders,
		now:       time.Now,
	}
}

// Create places a new order.
//
// The acceptance gate is consulted first: when closed, the attempt fails with
// *settings.OrdersClosedError before any pricing or persistence, so no
// partial rows are ever written for a rejected attempt. Line items are priced
// by the discount resolver against the current rule snapshot and the result
// is frozen into each item; an optional order-level code is applied against
// the subtotal; the current shipping cost is added; and the order, its items,
// and the initial status event are persisted in one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	gate, err := s.store.Acceptance(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "check acceptance gate")
	}
	if !gate.Open {
		return nil, &settings.OrdersClosedError{Message: gate.Message}
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]int64, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	rules, err := s.discounts.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list discount rules")
	}

	now := s.now()
	currency := ""
	subtotal := decimal.Zero
	items := make([]Item, len(req.Items))
	for i, reqItem := range req.Items {
		p, ok := byID[reqItem.ProductID]
		if !ok || !p.Active {
			return nil, &ProductNotFoundError{ProductID: reqItem.ProductID}
		}
		if currency == "" {
			currency = p.Currency
		}

		res := discount.Resolve(p, rules, now)
		lineTotal := res.UnitPrice.Mul(decimal.NewFromInt(int64(reqItem.Quantity))).Round(3)

		items[i] = Item{
			ProductID: p.ID,
			Quantity:  reqItem.Quantity,
			UnitPrice: res.UnitPrice,
			LineTotal: lineTotal,
			Snapshot: Snapshot{
				Title:         p.Title,
				ListPrice:     p.Price,
				UnitPrice:     res.UnitPrice,
				Currency:      p.Currency,
				Attributes:    p.Attributes,
				AppliedRuleID: res.AppliedRuleID,
				Percent:       res.Percent,
			},
		}
		subtotal = subtotal.Add(lineTotal)
	}
	subtotal = subtotal.Round(3)

	discountAmount := decimal.Zero
	code := strings.ToUpper(strings.TrimSpace(req.DiscountCode))
	if code != "" {
		pc, err := s.promos.FindByCode(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "lookup promo code")
		}
		discountAmount, err = promo.Apply(pc, subtotal)
		if err != nil {
			return nil, err
		}
	}

	shipping, err := s.store.ShippingCost(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get shipping cost")
	}
	if currency == "" {
		currency = shipping.Currency
	}

	o := &Order{
		OrderNumber:   NewOrderNumber(),
		Status:        InitialStatus(req.PaymentMethod),
		Currency:      currency,
		Subtotal:      subtotal,
		Discount:      discountAmount,
		Shipping:      shipping.Amount.Round(3),
		Total:         subtotal.Sub(discountAmount).Add(shipping.Amount).Round(3),
		DiscountCode:  code,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.CheckTotals(); err != nil {
		return nil, errors.Wrap(err, "totals invariant")
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Transition applies a status transition and persists it together with its
// audit event. A nil event (idempotent gateway replay) persists nothing.
func (s *Service) Transition(ctx context.Context, o *Order, target Status, actor Actor, notes string) error {
	ev, err := ApplyTransition(o, target, actor, notes, s.now())
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}
	if err := s.orders.UpdateStatus(ctx, o, *ev); err != nil {
		return errors.Wrap(err, "persist status transition")
	}
	return nil
}

// ForceStatus is the operator-facing override for a single order. It routes
// through the same transition rules as the gateway path; there is exactly one
// authority over order status.
func (s *Service) ForceStatus(ctx context.Context, orderID int64, target Status, notes string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.Transition(ctx, o, target, ActorAdmin, notes); err != nil {
		return nil, err
	}
	return o, nil
}

// BulkResult is the per-order outcome of a bulk status override.
type BulkResult struct {
	OrderID int64
	Err     error
}

// bulkWorkers bounds concurrent transitions in a bulk override.
const bulkWorkers = 4

// BulkForceStatus applies ForceStatus to each order with bounded concurrency
// and reports a result per order. One illegal transition does not abort the
// rest of the batch.
func (s *Service) BulkForceStatus(ctx context.Context, orderIDs []int64, target Status, notes string) []BulkResult {
	results := make([]BulkResult, len(orderIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkWorkers)
	for i, id := range orderIDs {
		g.Go(func() error {
			_, err := s.ForceStatus(ctx, id, target, notes)
			results[i] = BulkResult{OrderID: id, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// NewOrderNumber generates a stable, externally shareable order number of the
// form ORD-XXXXXXXX.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
