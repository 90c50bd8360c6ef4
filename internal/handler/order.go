package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
)

type createOrderRequest struct {
	Items []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
	DiscountCode  string `json:"discount_code,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Customer      struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email,omitempty"`
	} `json:"customer"`
	Address struct {
		City   string `json:"city"`
		Block  string `json:"block"`
		Street string `json:"street"`
		Extra  string `json:"extra,omitempty"`
	} `json:"address"`
}

type orderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Percent   decimal.Decimal `json:"discount_percent"`
}

type orderResponse struct {
	OrderID        int64               `json:"order_id"`
	OrderNumber    string              `json:"order_number"`
	Status         order.Status        `json:"status"`
	Currency       string              `json:"currency"`
	Subtotal       decimal.Decimal     `json:"subtotal_amount"`
	Discount       decimal.Decimal     `json:"discount_amount"`
	Shipping       decimal.Decimal     `json:"shipping_amount"`
	Total          decimal.Decimal     `json:"total_amount"`
	DiscountCode   string              `json:"discount_code,omitempty"`
	PaymentMethod  string              `json:"payment_method"`
	TrackingNumber *string             `json:"tracking_number,omitempty"`
	AdminNotes     string              `json:"admin_notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []orderItemResponse `json:"order_items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Title:     item.Snapshot.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			Percent:   item.Snapshot.Percent,
		}
	}
	return orderResponse{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		Shipping:       o.Shipping,
		Total:          o.Total,
		DiscountCode:   o.DiscountCode,
		PaymentMethod:  o.PaymentMethod,
		TrackingNumber: o.TrackingNumber,
		AdminNotes:     o.AdminNotes,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}

// CreateOrder places a new order: gate check, discount resolution, atomic
// persistence.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]order.CreateItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.CreateItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		Items:         items,
		DiscountCode:  req.DiscountCode,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.Customer.Name,
		CustomerPhone: req.Customer.Phone,
		CustomerEmail: req.Customer.Email,
		Address: order.Address{
			City:   req.Address.City,
			Block:  req.Address.Block,
			Street: req.Address.Street,
			Extra:  req.Address.Extra,
		},
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

type trackResponse struct {
	Order      orderResponse        `json:"order"`
	StatusInfo order.StatusInfo     `json:"status_info"`
	Timeline   []order.TimelineStep `json:"timeline"`
}

// TrackOrder returns the read-only tracking projection for an order number.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "orderNumber")

	tracking, err := h.orders.Track(r.Context(), number)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trackResponse{
		Order:      toOrderResponse(tracking.Order),
		StatusInfo: tracking.StatusInfo,
		Timeline:   tracking.Timeline,
	})
}
