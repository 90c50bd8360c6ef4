package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Attributes holds loosely-typed product metadata (size, color, ...).
// Values are restricted to string, float64, or bool; the seed tool rejects
// anything else before it reaches storage.
type Attributes map[string]any

// Valid reports whether every attribute value has an allowed type.
func (a Attributes) Valid() bool {
	for _, v := range a {
		switch v.(type) {
		case string, float64, bool:
		default:
			return false
		}
	}
	return true
}

// Product represents a catalog item available for purchase. The catalog
// itself (browsing, search, images) is an external collaborator; the core
// only needs identity, price, and attributes to freeze into order snapshots.
type Product struct {
	ID         int64
	Title      string
	Price      decimal.Decimal
	Currency   string
	Attributes Attributes
	Active     bool
}

// Repository defines the catalog reads the core needs: batch lookups for
// pricing order items and a full listing for discount previews.
type Repository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
}
