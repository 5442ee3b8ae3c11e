package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, name, phone, role, last_name_update FROM users WHERE id = $1`

	var (
		u       domain.User
		renamed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &renamed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, provider.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	if renamed.Valid {
		t := renamed.Time
		u.LastNameUpdate = &t
	}
	return &u, nil
}

func (s *Store) SaveUser(ctx context.Context, u domain.User) error {
	query := `INSERT INTO users (id, email, name, phone, role, last_name_update)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET
	              email = excluded.email,
	              name = excluded.name,
	              phone = excluded.phone,
	              role = excluded.role,
	              last_name_update = excluded.last_name_update`

	var renamed sql.NullTime
	if u.LastNameUpdate != nil {
		renamed = sql.NullTime{Time: u.LastNameUpdate.UTC(), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.Phone, string(u.Role), renamed); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
