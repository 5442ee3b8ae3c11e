package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Catalog       *CatalogHandler
	Cart          *CartHandler
	Orders        *OrdersHandler
	Notifications *NotificationsHandler
	Profile       *ProfileHandler
}

// NewRouter builds the public API. Identity comes from the headers set by
// the authenticating proxy.
func NewRouter(h Handlers, requestTimeout time.Duration, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{id}", h.Catalog.GetProduct)
		r.Post("/inquiries", h.Orders.SubmitInquiry)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})
			r.Post("/checkout", h.Cart.Checkout)

			r.Get("/orders", h.Orders.ListOrders)
			r.Get("/orders/{id}", h.Orders.GetOrder)

			r.Get("/notifications", h.Notifications.List)
			r.Post("/notifications/read-all", h.Notifications.MarkAllRead)
			r.Post("/notifications/{id}/read", h.Notifications.MarkRead)

			r.Get("/profile", h.Profile.Get)
			r.Put("/profile/name", h.Profile.UpdateName)
			r.Put("/profile/phone", h.Profile.UpdatePhone)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/products", h.Catalog.CreateProduct)
			r.Put("/products/{id}", h.Catalog.UpdateProduct)
			r.Delete("/products/{id}", h.Catalog.DeleteProduct)
			r.Put("/products/{id}/stock", h.Catalog.UpdateStock)

			r.Get("/orders", h.Orders.ListOrders)
			r.Put("/orders/{id}/status", h.Orders.UpdateStatus)
			r.Put("/orders/{id}/quote", h.Orders.SetQuote)
			r.Get("/summary", h.Orders.Summary)
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", getRequestID(r.Context()),
			)
		})
	}
}
