package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/order"
	"github.com/go-chi/chi/v5"
)

// Orders is implemented by order.Service.
type Orders interface {
	SubmitInquiry(ctx context.Context, who domain.Identity, req order.InquiryRequest) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	SetQuotePrice(ctx context.Context, orderID string, amount int64) (*domain.Order, error)
	Orders(ctx context.Context, f order.Filter) ([]domain.Order, error)
	Order(ctx context.Context, id string) (*domain.Order, error)
	Summary(ctx context.Context) (order.Summary, error)
}

type OrdersHandler struct {
	orders  Orders
	timeout time.Duration
	logger  *slog.Logger
}

func NewOrdersHandler(orders Orders, timeout time.Duration, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout, logger: logger}
}

type InquiryRequestDTO struct {
	Size           string `json:"size"`
	Notes          string `json:"notes"`
	Date           string `json:"date"`
	ReferenceImage string `json:"reference_image,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
}

type StatusRequestDTO struct {
	Status string `json:"status"`
}

type QuoteRequestDTO struct {
	Amount int64 `json:"amount"`
}

// ListOrders returns the caller's orders, or every order for admins.
// Supports ?status= and ?type=order|inquiry.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := identityFromContext(r.Context())
	var f order.Filter
	if !id.IsAdmin() {
		f.UserID = id.UserID
	}

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		s, ok := domain.ParseOrderStatus(v)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid_status", "unknown status "+v)
			return
		}
		f.Status = s
	}
	switch q.Get("type") {
	case "":
	case "inquiry":
		f.InquiriesOnly = true
	case "order":
		f.OrdersOnly = true
	default:
		respondError(w, http.StatusBadRequest, "invalid_type", "type must be order or inquiry")
		return
	}

	orders, err := h.orders.Orders(ctx, f)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.Order(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	id := identityFromContext(r.Context())
	if !id.IsAdmin() && o.UserID != id.UserID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// SubmitInquiry is open to guests, who must include name and email.
func (h *OrdersHandler) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req InquiryRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.SubmitInquiry(ctx, identityFromContext(r.Context()), order.InquiryRequest{
		Size:           req.Size,
		Notes:          req.Notes,
		Date:           req.Date,
		ReferenceImage: req.ReferenceImage,
		Name:           req.Name,
		Email:          req.Email,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, OrderResponse{Order: &o})
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown status "+req.Status)
		return
	}

	o, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "id"), status)
	respondOrderUpdate(w, r, h.logger, o, err)
}

func (h *OrdersHandler) SetQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req QuoteRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.SetQuotePrice(ctx, chi.URLParam(r, "id"), req.Amount)
	respondOrderUpdate(w, r, h.logger, o, err)
}

func (h *OrdersHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sum, err := h.orders.Summary(ctx)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}
