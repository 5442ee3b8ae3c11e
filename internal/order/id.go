package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength    = 6
	maxIDAttempts = 5
)

var alphabetSize = big.NewInt(int64(len(codeAlphabet)))

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// insert gives o a fresh prefixed id and persists it. A code already used
// by an existing order is regenerated; the store's primary key catches
// anything created between the lookup and the insert.
func (s *Service) insert(ctx context.Context, o domain.Order, prefix string) (domain.Order, error) {
	existing, err := s.store.GetOrders(ctx)
	if err != nil {
		return o, fmt.Errorf("load orders: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}

	for range maxIDAttempts {
		code, err := s.newCode()
		if err != nil {
			return o, err
		}
		o.ID = prefix + code
		if _, ok := taken[o.ID]; ok {
			s.logger.Debug("order id collision, regenerating", "order_id", o.ID)
			continue
		}

		err = s.store.CreateOrder(ctx, o)
		if errors.Is(err, provider.ErrDuplicateOrder) {
			taken[o.ID] = struct{}{}
			continue
		}
		if err != nil {
			return o, fmt.Errorf("create order: %w", err)
		}
		return o, nil
	}
	return o, ErrIDSpaceExhausted
}
