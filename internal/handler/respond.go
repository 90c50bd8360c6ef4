package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/promo"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps the error taxonomy onto HTTP statuses:
// validation and illegal transitions are 422, the closed gate is 409,
// unknown references are 404, an unreachable gateway is 502. Nothing here
// crashes the process on bad input.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		closedErr     *settings.OrdersClosedError
		quantityErr   *order.InvalidQuantityError
		productErr    *order.ProductNotFoundError
		transitionErr *order.StateTransitionError
		notFoundErr   *order.NotFoundError
		mismatchErr   *payment.AmountMismatchError
		notPayableErr *payment.NotPayableError
		gatewayErr    *payment.GatewayError
	)

	switch {
	case errors.As(err, &closedErr):
		respondError(w, http.StatusConflict, closedErr.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &quantityErr),
		errors.As(err, &productErr),
		errors.Is(err, promo.ErrInvalidCode),
		errors.As(err, &mismatchErr),
		errors.As(err, &notPayableErr),
		errors.As(err, &transitionErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, payment.ErrAttemptNotFound),
		errors.Is(err, discount.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &gatewayErr):
		respondError(w, http.StatusBadGateway, "payment gateway unavailable, try again")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody parses a JSON request body, reporting malformed input as a
// 400 to the client.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
