package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Users authenticate to obtain an access token whose subject
// becomes the owner of any booking they make.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	Email        – contact address.
//	PasswordHash – bcrypt hashed password.
//	Role         – ADMIN or CUSTOMER.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// Role names carried in the users table and in access tokens.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)
