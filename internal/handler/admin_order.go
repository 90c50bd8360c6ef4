package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
)

type forceStatusRequest struct {
	Status     order.Status `json:"status"`
	AdminNotes string       `json:"admin_notes,omitempty"`
}

// ForceOrderStatus is the operator override for a single order. It routes
// through the same state machine as the gateway path, so illegal transitions
// are rejected here exactly as anywhere else.
func (h *Handler) ForceOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req forceStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	o, err := h.orders.ForceStatus(r.Context(), id, req.Status, req.AdminNotes)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

type bulkForceStatusRequest struct {
	OrderIDs   []int64      `json:"order_ids"`
	Status     order.Status `json:"status"`
	AdminNotes string       `json:"admin_notes,omitempty"`
}

type bulkForceStatusResult struct {
	OrderID int64  `json:"order_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type bulkForceStatusResponse struct {
	Results []bulkForceStatusResult `json:"results"`
}

// BulkForceOrderStatus applies the override to many orders, reporting a
// per-order outcome. One rejected transition does not abort the batch.
func (h *Handler) BulkForceOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkForceStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "order_ids required")
		return
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	results := h.orders.BulkForceStatus(r.Context(), req.OrderIDs, req.Status, req.AdminNotes)

	resp := bulkForceStatusResponse{Results: make([]bulkForceStatusResult, len(results))}
	for i, res := range results {
		out := bulkForceStatusResult{OrderID: res.OrderID, OK: res.Err == nil}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		resp.Results[i] = out
	}
	respondJSON(w, http.StatusOK, resp)
}
