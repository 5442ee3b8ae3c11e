package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

const orderColumns = `id, user_id, customer_name, customer_email, items, total_amount, status,
	payment_method, payment_proof, delivery_method, scheduled_date, scheduled_time,
	created_at, is_custom_inquiry, custom_details`

func (s *Store) GetOrders(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func scanOrder(rows *sql.Rows) (domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
		details   sql.NullString
	)
	err := rows.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerEmail,
		&itemsJSON,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentProof,
		&o.DeliveryMethod,
		&o.ScheduledDate,
		&o.ScheduledTime,
		&o.CreatedAt,
		&o.IsCustomInquiry,
		&details,
	)
	if err != nil {
		return o, fmt.Errorf("scan order row: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshal order items: %w", err)
	}
	if details.Valid && details.String != "" {
		o.CustomDetails = &domain.CustomDetails{}
		if err := json.Unmarshal([]byte(details.String), o.CustomDetails); err != nil {
			return o, fmt.Errorf("unmarshal custom details: %w", err)
		}
	}
	return o, nil
}

func orderArgs(o domain.Order) ([]any, error) {
	items := o.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}

	var details sql.NullString
	if o.CustomDetails != nil {
		b, err := json.Marshal(o.CustomDetails)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal custom details: %w", err)
		}
		details = sql.NullString{String: string(b), Valid: true}
	}

	return []any{
		o.ID,
		o.UserID,
		o.CustomerName,
		o.CustomerEmail,
		string(itemsJSON),
		o.TotalAmount,
		string(o.Status),
		string(o.PaymentMethod),
		o.PaymentProof,
		string(o.DeliveryMethod),
		o.ScheduledDate,
		o.ScheduledTime,
		o.CreatedAt.UTC(),
		o.IsCustomInquiry,
		details,
	}, nil
}

func (s *Store) CreateOrder(ctx context.Context, o domain.Order) error {
	args, err := orderArgs(o)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	if _, insertErr := s.db.ExecContext(ctx, query, args...); insertErr != nil {
		if isDuplicate(insertErr) {
			return provider.ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

// UpdateOrder rewrites every mutable column; id and created_at stay fixed.
func (s *Store) UpdateOrder(ctx context.Context, o domain.Order) error {
	args, err := orderArgs(o)
	if err != nil {
		return err
	}

	query := `UPDATE orders SET
	              user_id = $2, customer_name = $3, customer_email = $4, items = $5,
	              total_amount = $6, status = $7, payment_method = $8, payment_proof = $9,
	              delivery_method = $10, scheduled_date = $11, scheduled_time = $12,
	              is_custom_inquiry = $13, custom_details = $14
	          WHERE id = $1`

	// drop created_at (index 12) from the argument list
	updateArgs := append(append([]any{}, args[:12]...), args[13:]...)
	res, err := s.db.ExecContext(ctx, query, updateArgs...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return requireRow(res, provider.ErrOrderNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
