package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Catalog is implemented by inventory.Ledger.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SetStock(ctx context.Context, productID string, qty int) (*domain.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error)
}

type CatalogHandler struct {
	catalog Catalog
	timeout time.Duration
	logger  *slog.Logger
}

func NewCatalogHandler(catalog Catalog, timeout time.Duration, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout, logger: logger}
}

// StockRequestDTO sets the stock to Stock or moves it by Delta.
type StockRequestDTO struct {
	Stock *int `json:"stock,omitempty"`
	Delta *int `json:"delta,omitempty"`
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Products(ctx)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if c := domain.ProductCategory(r.URL.Query().Get("category")); c != "" {
		filtered := make([]domain.Product, 0, len(products))
		for _, p := range products {
			if p.Category == c {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var p domain.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := h.catalog.AddProduct(ctx, p)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var p domain.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.catalog.UpdateProduct(ctx, p); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	var (
		p   *domain.Product
		err error
	)
	switch {
	case req.Stock != nil && req.Delta != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", "send either stock or delta")
		return
	case req.Stock != nil:
		p, err = h.catalog.SetStock(ctx, id, *req.Stock)
	case req.Delta != nil:
		p, err = h.catalog.AdjustStock(ctx, id, *req.Delta)
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "stock or delta is required")
		return
	}
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
