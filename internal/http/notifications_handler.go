package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/go-chi/chi/v5"
)

// Notifications is implemented by notification.Repository.
type Notifications interface {
	List(ctx context.Context, userID string) ([]domain.UserNotification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type NotificationsHandler struct {
	repo    Notifications
	timeout time.Duration
	logger  *slog.Logger
}

func NewNotificationsHandler(repo Notifications, timeout time.Duration, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, timeout: timeout, logger: logger}
}

type NotificationsResponse struct {
	Notifications []domain.UserNotification `json:"notifications"`
	Unread        int                       `json:"unread"`
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := identityFromContext(r.Context())
	items, err := h.repo.List(ctx, id.UserID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.UserNotification{}
	}
	respondJSON(w, http.StatusOK, NotificationsResponse{Notifications: items, Unread: notification.CountUnread(items)})
}

// MarkRead only touches notifications owned by the caller.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := identityFromContext(r.Context())
	nid := chi.URLParam(r, "id")
	items, err := h.repo.List(ctx, id.UserID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if !slices.ContainsFunc(items, func(n domain.UserNotification) bool { return n.ID == nid }) {
		respondError(w, http.StatusNotFound, "not_found", "notification not found")
		return
	}

	if err := h.repo.MarkRead(ctx, nid); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := identityFromContext(r.Context())
	if err := h.repo.MarkAllRead(ctx, id.UserID); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
