package discount

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
)

// moneyPlaces is the rounding precision for all resolved prices. The shop
// trades in a 3-decimal currency.
const moneyPlaces = 3

var hundred = decimal.NewFromInt(100)

// Resolution is the outcome of resolving a product's effective price against
// a rule set at a point in time.
type Resolution struct {
	// UnitPrice is the effective price after the winning rule, rounded to
	// three decimal places. Equals the list price when no rule applies.
	UnitPrice decimal.Decimal
	// AppliedRuleID identifies the winning rule; zero when none applied.
	AppliedRuleID int64
	// Percent is the effective discount percentage for display, rounded to
	// two places. Zero when no rule applied.
	Percent decimal.Decimal
}

// Discounted reports whether any rule applied.
func (r Resolution) Discounted() bool {
	return r.AppliedRuleID != 0
}

// Resolve picks the single winning rule for the product at the given time and
// returns the effective unit price.
//
// Candidates are rules that are active, inside their validity window, and
// whose scope covers the product. Among candidates the highest priority wins;
// on equal priority the lowest rule id wins, so the result never depends on
// iteration order. With no candidates the list price applies unmodified.
//
// Resolve is pure: it reads only its arguments and is safe for unlimited
// concurrent calls. Callers freeze the result into the order item snapshot;
// it is never re-evaluated for an existing order.
func Resolve(p product.Product, rules []Rule, at time.Time) Resolution {
	var winner *Rule
	for i := range rules {
		r := &rules[i]
		if !r.Active || !r.InWindow(at) || !r.AppliesTo(p.ID) {
			continue
		}
		if winner == nil || r.Priority > winner.Priority ||
			(r.Priority == winner.Priority && r.ID < winner.ID) {
			winner = r
		}
	}

	if winner == nil {
		return Resolution{UnitPrice: p.Price.Round(moneyPlaces)}
	}

	price := apply(winner, p.Price)
	return Resolution{
		UnitPrice:     price,
		AppliedRuleID: winner.ID,
		Percent:       displayPercent(winner, p.Price, price),
	}
}

// apply computes the discounted price for a single rule.
func apply(r *Rule, price decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch r.Type {
	case TypePercentage:
		out = price.Mul(decimal.NewFromInt(1).Sub(r.Value.Div(hundred)))
	case TypeFixed:
		out = price.Sub(r.Value)
	default:
		out = price
	}
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Round(moneyPlaces)
}

// displayPercent derives the percentage shown next to a discounted price.
// Percentage rules report their own value; fixed rules report the effective
// reduction relative to the list price.
func displayPercent(r *Rule, listPrice, unitPrice decimal.Decimal) decimal.Decimal {
	if r.Type == TypePercentage {
		return r.Value.Round(2)
	}
	if listPrice.IsZero() {
		return decimal.Zero
	}
	return listPrice.Sub(unitPrice).Div(listPrice).Mul(hundred).Round(2)
}
