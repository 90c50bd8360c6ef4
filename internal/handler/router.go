package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router builds the API route tree. Admin routes sit behind the API key
// middleware; everything else is public storefront surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/track/{orderNumber}", h.TrackOrder)

		r.Post("/payments/initiate", h.InitiatePayment)
		r.Get("/payments/verify", h.VerifyPayment)
		r.Post("/payments/verify", h.VerifyPayment)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.security.RequireAdmin)

			r.Patch("/orders/{id}/status", h.ForceOrderStatus)
			r.Patch("/orders/bulk-status", h.BulkForceOrderStatus)

			r.Get("/orders-acceptance", h.GetOrdersAcceptance)
			r.Post("/orders-acceptance", h.SetOrdersAcceptance)

			r.Get("/shipping-cost", h.GetShippingCost)
			r.Put("/shipping-cost", h.SetShippingCost)

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", h.ListDiscounts)
				r.Post("/", h.CreateDiscount)
				r.Get("/{id}", h.GetDiscount)
				r.Put("/{id}", h.UpdateDiscount)
				r.Delete("/{id}", h.DeleteDiscount)
				r.Post("/{id}/toggle", h.ToggleDiscount)
				r.Post("/{id}/duplicate", h.DuplicateDiscount)
				r.Get("/{id}/affected-products", h.DiscountAffectedProducts)
			})
		})
	})

	return r
}
