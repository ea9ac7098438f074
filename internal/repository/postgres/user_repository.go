package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	const stmt = `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	err := s.queryRow(ctx, stmt, u.Username, u.Email, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if uniqueConstraint(err) == "uq_users_username" {
			return account.ErrUserExists
		}
		return translate("create user", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.queryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, account.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, translate("get user", err)
	}
	return u, nil
}

var (
	_ booking.Store = (*Store)(nil)
	_ account.Store = (*Store)(nil)
)
