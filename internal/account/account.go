// Package account registers users and issues the access tokens whose
// subject becomes the owner of every booking.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/utils"
)

var (
	// ErrUserExists is returned by stores when the username is taken.
	ErrUserExists = errors.New("username already exists")
	// ErrUserNotFound is returned by stores for an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput rejects registrations without username or password.
	ErrInvalidInput = errors.New("username and password are required")
	// ErrPasswordTooLong rejects passwords bcrypt would truncate.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// Service implements registration and login.
type Service struct {
	store      Store
	secret     string
	ttlMin     int
	bcryptCost int
}

// NewService returns a Service that signs tokens with secret.
func NewService(store Store, secret string, ttlMin, bcryptCost int) *Service {
	return &Service{store: store, secret: secret, ttlMin: ttlMin, bcryptCost: bcryptCost}
}

// Session is what a successful register or login hands back.
type Session struct {
	User   model.User
	Access utils.AccessToken
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, username, email, password string, admin bool) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidInput
	}
	if len(password) > 72 {
		return Session{}, ErrPasswordTooLong
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	role := model.RoleCustomer
	if admin {
		role = model.RoleAdmin
	}
	u := model.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return Session{}, err
	}
	return s.session(u)
}

// Login verifies the password and issues a fresh access token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.BurnPasswordCheck(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *Service) session(u model.User) (Session, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Username, u.Role, s.ttlMin)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: tok}, nil
}
