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

// Carts is implemented by cart.Registry.
type Carts interface {
	Items(ctx context.Context, userID string) []domain.CartLineItem
	Add(ctx context.Context, userID string, p domain.Product) ([]domain.CartLineItem, error)
	UpdateQuantity(ctx context.Context, userID string, p domain.Product, q int) []domain.CartLineItem
	Remove(ctx context.Context, userID, productID string) []domain.CartLineItem
	Clear(ctx context.Context, userID string)
}

// Checkouts is the part of order.Service the cart needs.
type Checkouts interface {
	Checkout(ctx context.Context, who domain.Identity, req order.CheckoutRequest) (domain.Order, error)
}

type CartHandler struct {
	carts   Carts
	catalog Catalog
	orders  Checkouts
	timeout time.Duration
	logger  *slog.Logger
}

func NewCartHandler(carts Carts, catalog Catalog, orders Checkouts, timeout time.Duration, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, orders: orders, timeout: timeout, logger: logger}
}

type CartResponse struct {
	Items []domain.CartLineItem `json:"items"`
	Total int64                 `json:"total"`
	Count int                   `json:"count"`
}

func newCartResponse(items []domain.CartLineItem) CartResponse {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return CartResponse{Items: items, Total: domain.SumItems(items), Count: count}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	PaymentMethod  domain.PaymentMethod  `json:"payment_method"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
	ScheduledDate  string                `json:"scheduled_date"`
	ScheduledTime  string                `json:"scheduled_time"`
	PaymentProof   string                `json:"payment_proof,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	respondJSON(w, http.StatusOK, newCartResponse(h.carts.Items(r.Context(), id.UserID)))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	p, err := h.catalog.Product(ctx, req.ProductID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	id := identityFromContext(r.Context())
	items, err := h.carts.Add(ctx, id.UserID, *p)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(items))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.Product(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	id := identityFromContext(r.Context())
	respondJSON(w, http.StatusOK, newCartResponse(h.carts.UpdateQuantity(ctx, id.UserID, *p, req.Quantity)))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	items := h.carts.Remove(r.Context(), id.UserID, chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, newCartResponse(items))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	h.carts.Clear(r.Context(), id.UserID)
	respondJSON(w, http.StatusOK, newCartResponse(nil))
}

// Checkout places an order from the caller's cart and empties the cart on
// success only.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	id := identityFromContext(r.Context())

	o, err := h.orders.Checkout(ctx, id, order.CheckoutRequest{
		Items:          h.carts.Items(ctx, id.UserID),
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		ScheduledDate:  req.ScheduledDate,
		ScheduledTime:  req.ScheduledTime,
		PaymentProof:   req.PaymentProof,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	h.carts.Clear(ctx, id.UserID)
	respondJSON(w, http.StatusCreated, OrderResponse{Order: &o})
}
