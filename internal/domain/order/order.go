package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
)

// Order is the order aggregate. Its status field is mutated only through
// ApplyTransition; orders are never deleted, only cancelled.
type Order struct {
	ID          int64
	OrderNumber string
	Status      Status
	Currency    string

	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal

	DiscountCode  string
	PaymentMethod string

	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Address       Address

	TrackingNumber *string
	ShippingDate   *time.Time
	DeliveryDate   *time.Time
	AdminNotes     string

	Items []Item

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is the shipping destination.
type Address struct {
	City   string
	Block  string
	Street string
	Extra  string
}

// Item is a single order line. Its Snapshot and UnitPrice are frozen at
// order-creation time and never change, even if the product or its discount
// rules change later.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Snapshot  Snapshot
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Snapshot captures the purchased product as it was priced at time of sale.
type Snapshot struct {
	Title         string             `json:"title"`
	ListPrice     decimal.Decimal    `json:"list_price"`
	UnitPrice     decimal.Decimal    `json:"unit_price"`
	Currency      string             `json:"currency"`
	Attributes    product.Attributes `json:"attributes,omitempty"`
	AppliedRuleID int64              `json:"applied_rule_id,omitempty"`
	Percent       decimal.Decimal    `json:"discount_percent"`
}

// StatusEvent records one applied status transition for audit and for the
// tracking timeline.
type StatusEvent struct {
	ID        int64
	OrderID   int64
	From      Status
	To        Status
	Actor     Actor
	Notes     string
	CreatedAt time.Time
}

// CheckTotals verifies the order money invariant:
// total == subtotal - discount + shipping, and total >= 0.
func (o *Order) CheckTotals() error {
	want := o.Subtotal.Sub(o.Discount).Add(o.Shipping)
	if !o.Total.Equal(want) {
		return fmt.Errorf("order total %s does not equal subtotal %s - discount %s + shipping %s",
			o.Total, o.Subtotal, o.Discount, o.Shipping)
	}
	if o.Total.IsNegative() {
		return fmt.Errorf("order total %s is negative", o.Total)
	}
	return nil
}

// NotFoundError indicates an unknown order number. WrongFormat is set when
// the code looks like a gateway-issued invoice reference rather than an
// order number, so callers can report a more specific message.
type NotFoundError struct {
	OrderNumber string
	WrongFormat bool
}

func (e *NotFoundError) Error() string {
	if e.WrongFormat {
		return fmt.Sprintf("%q is a payment reference, not an order number", e.OrderNumber)
	}
	return fmt.Sprintf("order %q not found", e.OrderNumber)
}

// LooksLikeGatewayReference reports whether a tracking code has the shape of
// a gateway invoice reference (INV- prefix or all digits) instead of an
// ORD- order number.
func LooksLikeGatewayReference(code string) bool {
	if strings.HasPrefix(strings.ToUpper(code), "INV-") {
		return true
	}
	if code == "" {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Repository defines persistence for orders, their items, and their status
// event trail.
type Repository interface {
	// Create persists the order, its items, and the initial status event in
	// one transaction. A crash mid-sequence must not leave an order without
	// items.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// UpdateStatus persists the order's mutated status fields together with
	// the transition event in one transaction.
	UpdateStatus(ctx context.Context, o *Order, ev StatusEvent) error
	ListEvents(ctx context.Context, orderID int64) ([]StatusEvent, error)
}
