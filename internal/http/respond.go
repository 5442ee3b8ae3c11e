package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/bakehouse/internal/cart"
	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/order"
	"github.com/fjod/bakehouse/internal/profile"
	"github.com/fjod/bakehouse/internal/provider"
)

// maxBodyBytes leaves room for base64 payment proofs and reference images.
const maxBodyBytes = 5 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// OrderResponse carries an order whose change was persisted. Warning is set
// when a follow-up effect such as the customer notification failed.
type OrderResponse struct {
	Order   *domain.Order `json:"order"`
	Warning string        `json:"warning,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads the body into dst and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// respondServiceError converts core errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var httpStatus int
	var code string

	switch {
	case domain.IsValidation(err), errors.Is(err, order.ErrEmptyCart):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, order.ErrInvalidTransition):
		httpStatus, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, order.ErrNotInquiry):
		httpStatus, code = http.StatusConflict, "not_inquiry"
	case errors.Is(err, cart.ErrOutOfStock):
		httpStatus, code = http.StatusConflict, "out_of_stock"
	case errors.Is(err, profile.ErrNameCooldown):
		httpStatus, code = http.StatusTooManyRequests, "name_cooldown"
	case errors.Is(err, provider.ErrDuplicateProduct):
		httpStatus, code = http.StatusConflict, "already_exists"
	case errors.Is(err, order.ErrUnauthenticated):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, provider.ErrProductNotFound),
		errors.Is(err, provider.ErrOrderNotFound),
		errors.Is(err, provider.ErrNotificationNotFound),
		errors.Is(err, provider.ErrUserNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, order.ErrIDSpaceExhausted):
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

// respondOrderUpdate answers a status or quote change. A nil order with a
// nil error means the id was unknown.
func respondOrderUpdate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, o *domain.Order, err error) {
	switch {
	case o != nil && err != nil:
		logger.WarnContext(r.Context(), "order updated with warnings", "order_id", o.ID, "error", err)
		respondJSON(w, http.StatusOK, OrderResponse{Order: o, Warning: err.Error()})
	case err != nil:
		respondServiceError(w, r, logger, err)
	case o == nil:
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	default:
		respondJSON(w, http.StatusOK, OrderResponse{Order: o})
	}
}
