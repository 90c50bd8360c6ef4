package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

type acceptanceBody struct {
	Open    bool   `json:"open"`
	Message string `json:"message,omitempty"`
}

// GetOrdersAcceptance returns the current order acceptance gate.
func (h *Handler) GetOrdersAcceptance(w http.ResponseWriter, r *http.Request) {
	gate, err := h.store.Acceptance(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acceptanceBody{Open: gate.Open, Message: gate.Message})
}

// SetOrdersAcceptance replaces the gate. The message is surfaced verbatim to
// customers while the gate is closed.
func (h *Handler) SetOrdersAcceptance(w http.ResponseWriter, r *http.Request) {
	var req acceptanceBody
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.store.SetAcceptance(r.Context(), settings.Acceptance{
		Open:    req.Open,
		Message: req.Message,
	}); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

type shippingCostBody struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	EffectiveAt *time.Time      `json:"effective_at,omitempty"`
}

// GetShippingCost returns the single active shipping charge.
func (h *Handler) GetShippingCost(w http.ResponseWriter, r *http.Request) {
	cost, err := h.store.ShippingCost(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shippingCostBody{
		Amount:      cost.Amount,
		Currency:    cost.Currency,
		EffectiveAt: &cost.EffectiveAt,
	})
}

// SetShippingCost replaces the active shipping charge.
func (h *Handler) SetShippingCost(w http.ResponseWriter, r *http.Request) {
	var req shippingCostBody
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, http.StatusUnprocessableEntity, "shipping cost must not be negative")
		return
	}
	if req.Currency == "" {
		req.Currency = "KWD"
	}

	if err := h.store.SetShippingCost(r.Context(), settings.ShippingCost{
		Amount:      req.Amount,
		Currency:    req.Currency,
		EffectiveAt: time.Now(),
	}); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
