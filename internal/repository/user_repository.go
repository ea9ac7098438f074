package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateUser inserts u and populates its ID and CreatedAt.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if duplicateIndex(err) == idxUsersUsername {
			return account.ErrUserExists
		}
		return translate("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate("insert user", err)
	}
	u.ID = uint64(id)
	return r.DB.QueryRowContext(ctx, "SELECT created_at FROM users WHERE id=?", u.ID).Scan(&u.CreatedAt)
}

// GetUserByUsername fetches a user by login name.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,created_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, account.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, translate("get user", err)
	}
	return u, nil
}

var _ account.Store = (*UserRepo)(nil)
