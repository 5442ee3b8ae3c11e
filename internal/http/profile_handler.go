package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
)

// Profiles is implemented by profile.Service.
type Profiles interface {
	Get(ctx context.Context, who domain.Identity) (*domain.User, error)
	UpdateName(ctx context.Context, who domain.Identity, name string) (*domain.User, error)
	UpdatePhone(ctx context.Context, who domain.Identity, phone string) (*domain.User, error)
}

type ProfileHandler struct {
	profiles Profiles
	timeout  time.Duration
	logger   *slog.Logger
}

func NewProfileHandler(profiles Profiles, timeout time.Duration, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, timeout: timeout, logger: logger}
}

type NameRequestDTO struct {
	Name string `json:"name"`
}

type PhoneRequestDTO struct {
	Phone string `json:"phone"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, err := h.profiles.Get(ctx, identityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *ProfileHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req NameRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.profiles.UpdateName(ctx, identityFromContext(r.Context()), req.Name)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *ProfileHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PhoneRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.profiles.UpdatePhone(ctx, identityFromContext(r.Context()), req.Phone)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
