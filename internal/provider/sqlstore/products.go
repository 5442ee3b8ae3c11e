package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

func (s *Store) GetProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, category, image, stock
		FROM products
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (s *Store) AddProduct(ctx context.Context, p domain.Product) error {
	query := `INSERT INTO products (id, name, description, price, category, image, stock, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Image, p.Stock, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return provider.ErrDuplicateProduct
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	query := `UPDATE products
	          SET name = $2, description = $3, price = $4, category = $5, image = $6, stock = $7
	          WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Image, p.Stock)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(res, provider.ErrProductNotFound)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res, provider.ErrProductNotFound)
}
