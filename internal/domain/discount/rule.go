package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage reduces the price by a percentage of itself.
	TypePercentage Type = "percentage"
	// TypeFixed subtracts a fixed amount, floored at zero.
	TypeFixed Type = "fixed"
)

// Scope enumerates which products a rule applies to.
type Scope string

const (
	// ScopeAll applies the rule to every product.
	ScopeAll Scope = "all_products"
	// ScopeSpecific applies the rule only to an explicit product-id set.
	ScopeSpecific Scope = "specific_products"
)

// ErrNotFound is returned when a requested rule does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("discount rule not found")

// Rule defines a named pricing rule. Rules are mutable by administrators at
// any time; mutation never affects already-created order items, which carry
// the resolved value, not a reference to the rule.
type Rule struct {
	ID         int64
	Name       string
	Type       Type
	Value      decimal.Decimal
	ApplyTo    Scope
	ProductIDs []int64
	Active     bool
	StartsAt   *time.Time
	ExpiresAt  *time.Time
	Priority   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppliesTo reports whether the rule's scope covers the given product.
func (r *Rule) AppliesTo(productID int64) bool {
	if r.ApplyTo == ScopeAll {
		return true
	}
	for _, id := range r.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// InWindow reports whether the rule is inside its validity window at t.
// Nil bounds are open-ended.
func (r *Rule) InWindow(t time.Time) bool {
	if r.StartsAt != nil && t.Before(*r.StartsAt) {
		return false
	}
	if r.ExpiresAt != nil && t.After(*r.ExpiresAt) {
		return false
	}
	return true
}

// Repository provides persistence for discount rules. Deletion is soft: a
// deleted rule stops matching but its row survives for history.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	ListActive(ctx context.Context) ([]Rule, error)
	GetByID(ctx context.Context, id int64) (*Rule, error)
	Create(ctx context.Context, rule *Rule) error
	Update(ctx context.Context, rule *Rule) error
	SetActive(ctx context.Context, id int64, active bool) (*Rule, error)
	SoftDelete(ctx context.Context, id int64) error
}
