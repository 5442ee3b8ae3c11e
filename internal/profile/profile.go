// Package profile manages the editable part of a customer account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

const (
	NameCooldown  = 7 * 24 * time.Hour
	MaxNameLength = 25
)

var ErrNameCooldown = errors.New("name was changed recently")

// Philippine mobile numbers, local or international form.
var phonePattern = regexp.MustCompile(`^(09|\+639)\d{9}$`)

type Store interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, u domain.User) error
}

type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// Get returns the stored profile of who. A signed-in user without a stored
// profile gets one built from the identity.
func (s *Service) Get(ctx context.Context, who domain.Identity) (*domain.User, error) {
	if who.IsGuest() {
		return nil, provider.ErrUserNotFound
	}
	u, err := s.store.GetUser(ctx, who.UserID)
	if errors.Is(err, provider.ErrUserNotFound) {
		return &domain.User{ID: who.UserID, Email: who.Email, Name: who.Name, Role: who.Role}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", who.UserID, err)
	}
	return u, nil
}

// UpdateName renames the user. It is allowed once per NameCooldown.
func (s *Service) UpdateName(ctx context.Context, who domain.Identity, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, domain.Invalid("name", "cannot be empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return nil, domain.Invalid("name", fmt.Sprintf("must be %d characters or less", MaxNameLength))
	}

	u, err := s.Get(ctx, who)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if u.LastNameUpdate != nil {
		if since := now.Sub(*u.LastNameUpdate); since < NameCooldown {
			days := int(math.Ceil((NameCooldown - since).Hours() / 24))
			return nil, fmt.Errorf("%w: you can edit your name again in %d days", ErrNameCooldown, days)
		}
	}

	u.Name = name
	u.LastNameUpdate = &now
	if err := s.store.SaveUser(ctx, *u); err != nil {
		return nil, fmt.Errorf("save user %s: %w", u.ID, err)
	}
	s.logger.Info("user renamed", "user_id", u.ID)
	return u, nil
}

func (s *Service) UpdatePhone(ctx context.Context, who domain.Identity, phone string) (*domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.Invalid("phone", "cannot be empty")
	}
	if !phonePattern.MatchString(phone) {
		return nil, domain.Invalid("phone", "must be a mobile number like 09123456789")
	}

	u, err := s.Get(ctx, who)
	if err != nil {
		return nil, err
	}
	u.Phone = phone
	if err := s.store.SaveUser(ctx, *u); err != nil {
		return nil, fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return u, nil
}
