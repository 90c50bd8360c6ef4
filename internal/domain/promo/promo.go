package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates supported promo code strategies.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

var (
	// ErrInvalidCode is returned when a promo code is unknown, inactive, or
	// the order does not satisfy its minimum subtotal.
	ErrInvalidCode = errors.New("invalid promo code")
)

// Code defines an order-level discount code, applied once against the order
// subtotal after line items are priced.
type Code struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	Description string
	Active      bool
}

// Repository provides lookup of promo codes.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
}

var hundred = decimal.NewFromInt(100)

// Apply computes the order-level discount amount for the given subtotal.
// The amount is capped at the subtotal and rounded to three decimal places.
func Apply(c *Code, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if !c.Active {
		return decimal.Zero, ErrInvalidCode
	}
	if c.MinSubtotal.IsPositive() && subtotal.LessThan(c.MinSubtotal) {
		return decimal.Zero, ErrInvalidCode
	}

	var amount decimal.Decimal
	switch c.Type {
	case TypePercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case TypeFixed:
		amount = c.Value
	default:
		return decimal.Zero, errors.Errorf("unsupported promo type: %q", c.Type)
	}

	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(3), nil
}
