package settings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Setting keys. Each key has exactly one current row; writes replace the
// current row atomically rather than mutate it, so prior values survive.
const (
	KeyOrdersAcceptance = "orders_acceptance"
	KeyShippingCost     = "shipping_cost"
)

// Acceptance is the global gate for accepting new orders. It is independent
// of any individual order.
type Acceptance struct {
	Open    bool   `json:"open"`
	Message string `json:"message"`
}

// ShippingCost is the single active shipping charge applied to new orders.
type ShippingCost struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	EffectiveAt time.Time       `json:"effective_at"`
}

// OrdersClosedError is returned when order creation is attempted while the
// gate is closed. It carries the operator-configured message verbatim.
type OrdersClosedError struct {
	Message string
}

func (e *OrdersClosedError) Error() string {
	if e.Message == "" {
		return "orders are currently closed"
	}
	return e.Message
}

// Store provides the current acceptance gate and shipping cost, and
// replace-on-write updates for both. Reads may be served from a short-lived
// cache; writes must be atomic so concurrent readers never observe a torn
// value.
type Store interface {
	Acceptance(ctx context.Context) (Acceptance, error)
	SetAcceptance(ctx context.Context, a Acceptance) error
	ShippingCost(ctx context.Context) (ShippingCost, error)
	SetShippingCost(ctx context.Context, c ShippingCost) error
}
