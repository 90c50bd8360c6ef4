package handler

import (
	"net"
	"net/http"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
)

type initiatePaymentRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

type initiatePaymentResponse struct {
	PaymentID   string `json:"payment_id"`
	InvoiceID   string `json:"invoice_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// InitiatePayment starts a gateway payment for an order and returns the
// redirect target. Each call records a fresh payment attempt; retries after
// a gateway failure are safe.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.payments.Initiate(r.Context(), req.OrderID, req.PaymentMethod, payment.ClientMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, initiatePaymentResponse{
		PaymentID:   result.PaymentID,
		InvoiceID:   result.InvoiceReference,
		RedirectURL: result.RedirectURL,
	})
}

// VerifyPayment resolves a gateway callback for an invoice reference. The
// operation is idempotent: replays return the same order snapshot without a
// second transition.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	invoice := r.URL.Query().Get("invoice")
	if invoice == "" {
		respondError(w, http.StatusBadRequest, "invoice parameter required")
		return
	}

	o, err := h.payments.Verify(r.Context(), invoice)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

// clientIP extracts the requesting client address, honoring the first
// X-Forwarded-For hop when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := range len(fwd) {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
