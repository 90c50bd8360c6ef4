package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
)

type discountRuleBody struct {
	ID         int64           `json:"id,omitempty"`
	Name       string          `json:"name"`
	Type       discount.Type   `json:"discount_type"`
	Value      decimal.Decimal `json:"discount_value"`
	ApplyTo    discount.Scope  `json:"apply_to"`
	ProductIDs []int64         `json:"product_ids,omitempty"`
	Active     bool            `json:"is_active"`
	StartsAt   *time.Time      `json:"starts_at,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	Priority   int             `json:"priority"`
}

func toRuleBody(r *discount.Rule) discountRuleBody {
	return discountRuleBody{
		ID:         r.ID,
		Name:       r.Name,
		Type:       r.Type,
		Value:      r.Value,
		ApplyTo:    r.ApplyTo,
		ProductIDs: r.ProductIDs,
		Active:     r.Active,
		StartsAt:   r.StartsAt,
		ExpiresAt:  r.ExpiresAt,
		Priority:   r.Priority,
	}
}

func (b *discountRuleBody) validate() string {
	if b.Name == "" {
		return "name required"
	}
	if b.Type != discount.TypePercentage && b.Type != discount.TypeFixed {
		return "discount_type must be percentage or fixed"
	}
	if b.Value.IsNegative() {
		return "discount_value must not be negative"
	}
	if b.Type == discount.TypePercentage && b.Value.GreaterThan(decimal.NewFromInt(100)) {
		return "percentage discount cannot exceed 100"
	}
	switch b.ApplyTo {
	case discount.ScopeAll:
	case discount.ScopeSpecific:
		if len(b.ProductIDs) == 0 {
			return "product_ids required for specific_products scope"
		}
	default:
		return "apply_to must be all_products or specific_products"
	}
	if b.StartsAt != nil && b.ExpiresAt != nil && b.ExpiresAt.Before(*b.StartsAt) {
		return "expires_at must not precede starts_at"
	}
	return ""
}

func (b *discountRuleBody) toRule() discount.Rule {
	return discount.Rule{
		ID:         b.ID,
		Name:       b.Name,
		Type:       b.Type,
		Value:      b.Value,
		ApplyTo:    b.ApplyTo,
		ProductIDs: b.ProductIDs,
		Active:     b.Active,
		StartsAt:   b.StartsAt,
		ExpiresAt:  b.ExpiresAt,
		Priority:   b.Priority,
	}
}

func ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid discount id")
		return 0, false
	}
	return id, true
}

// ListDiscounts returns every non-deleted rule.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	rules, err := h.discounts.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]discountRuleBody, len(rules))
	for i := range rules {
		out[i] = toRuleBody(&rules[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetDiscount returns a single rule.
func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRuleBody(rule))
}

// CreateDiscount persists a new rule.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRuleBody
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	rule := req.toRule()
	rule.ID = 0
	if err := h.discounts.Create(r.Context(), &rule); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRuleBody(&rule))
}

// UpdateDiscount replaces a rule's mutable fields. Existing order items are
// untouched: they carry resolved values, not rule references.
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	var req discountRuleBody
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	rule := req.toRule()
	rule.ID = id
	if err := h.discounts.Update(r.Context(), &rule); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRuleBody(&rule))
}

// DeleteDiscount soft-deletes a rule.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	if err := h.discounts.SoftDelete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleDiscount flips the rule's enabled flag.
func (h *Handler) ToggleDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	updated, err := h.discounts.SetActive(r.Context(), id, !rule.Active)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRuleBody(updated))
}

// DuplicateDiscount creates an inactive copy of a rule, ready for editing.
func (h *Handler) DuplicateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	src, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dup := *src
	dup.ID = 0
	dup.Name = src.Name + " (copy)"
	dup.Active = false
	if err := h.discounts.Create(r.Context(), &dup); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRuleBody(&dup))
}

type affectedProductsResponse struct {
	ApplyTo  discount.Scope    `json:"apply_to"`
	Products []affectedProduct `json:"products"`
}

type affectedProduct struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// DiscountAffectedProducts lists the products a rule's scope covers.
func (h *Handler) DiscountAffectedProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	var products []product.Product
	if rule.ApplyTo == discount.ScopeAll {
		products, err = h.products.List(r.Context())
	} else {
		products, err = h.products.GetByIDs(r.Context(), rule.ProductIDs)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := affectedProductsResponse{
		ApplyTo:  rule.ApplyTo,
		Products: make([]affectedProduct, len(products)),
	}
	for i, p := range products {
		resp.Products[i] = affectedProduct{ID: p.ID, Title: p.Title, Price: p.Price}
	}
	respondJSON(w, http.StatusOK, resp)
}
