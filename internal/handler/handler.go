// Package handler exposes the order lifecycle core over HTTP.
package handler

import (
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/auth"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

// Handler implements the HTTP API, delegating business logic to the domain
// services and repositories.
type Handler struct {
	orders    *order.Service
	payments  *payment.Service
	discounts discount.Repository
	products  product.Repository
	store     settings.Store
	security  *Security
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	payments *payment.Service,
	discounts discount.Repository,
	products product.Repository,
	store settings.Store,
	apikeys auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		orders:    orders,
		payments:  payments,
		discounts: discounts,
		products:  products,
		store:     store,
		security:  NewSecurity(apikeys, pepper),
	}
}
