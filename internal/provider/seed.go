package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
)

// AdminUserID is the operator account created by Seed.
const AdminUserID = "admin-001"

// DefaultProducts is the starter catalog of a fresh store.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "p1",
			Name:        "Classic Brookies",
			Description: "The perfect marriage of a fudgy brownie and a chewy chocolate chip cookie.",
			Price:       180,
			Category:    domain.CategoryCookies,
			Stock:       20,
		},
		{
			ID:          "p2",
			Name:        "Banana Loaf",
			Description: "Moist banana bread loaded with walnuts.",
			Price:       150,
			Category:    domain.CategoryPastries,
			Stock:       15,
		},
		{
			ID:          "p3",
			Name:        "Chocolate Moist Cake",
			Description: "Rich chocolate layers with fudge frosting.",
			Price:       450,
			Category:    domain.CategoryCakes,
			Stock:       5,
		},
		{
			ID:          "p4",
			Name:        "Red Velvet Crinkles",
			Description: "Soft red velvet cookies dusted with powdered sugar.",
			Price:       120,
			Category:    domain.CategoryCookies,
			Stock:       0,
		},
	}
}

// Seed fills an empty catalog with DefaultProducts and makes sure the
// admin account exists. It is a no-op on a populated store.
func Seed(ctx context.Context, p Provider) error {
	products, err := p.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("seed: load products: %w", err)
	}
	if len(products) == 0 {
		for _, prod := range DefaultProducts() {
			if err := p.AddProduct(ctx, prod); err != nil && !errors.Is(err, ErrDuplicateProduct) {
				return fmt.Errorf("seed: add product %s: %w", prod.ID, err)
			}
		}
	}

	if _, err := p.GetUser(ctx, AdminUserID); errors.Is(err, ErrUserNotFound) {
		admin := domain.User{ID: AdminUserID, Name: "Admin", Email: "admin@bakery.local", Role: domain.RoleAdmin}
		if err := p.SaveUser(ctx, admin); err != nil {
			return fmt.Errorf("seed: save admin: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("seed: load admin: %w", err)
	}
	return nil
}
