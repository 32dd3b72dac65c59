package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRole describes the access level of an account.
type UserRole string

// UserStatus describes the lifecycle state of an account.
type UserStatus string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleSeller   UserRole = "SELLER"
	RoleAdmin    UserRole = "ADMIN"

	UserActive  UserStatus = "ACTIVE"
	UserBlocked UserStatus = "BLOCKED"
	UserDeleted UserStatus = "DELETED"
)

// UserStore defines persistence operations for user accounts.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByLogin(ctx context.Context, email, phone string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// User represents a stored account with credential material.
type User struct {
	ID           uuid.UUID
	Email        string
	Phone        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Claims returns the public claims payload derived from the account.
func (u User) Claims() TokenClaims {
	return TokenClaims{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Status:    u.Status,
	}
}

// NewAccount carries the data needed to provision an account.
// The password is already hashed by the time it crosses a service boundary.
type NewAccount struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordHash string `json:"passwordHash"`
}

// VerifiedAccount is the user service's answer to a login verification
// request: public claims plus the stored hash for the caller to compare.
type VerifiedAccount struct {
	TokenClaims
	PasswordHash string `json:"passwordHash"`
}

// UserGateway is the auth service's handle to the remote user service.
// Register and Verify are blocking request/reply calls; Rollback is a
// fire-and-forget compensation signal and must be idempotent on the
// receiving side.
type UserGateway interface {
	Register(ctx context.Context, account NewAccount) (TokenClaims, error)
	Verify(ctx context.Context, email, phone string) (VerifiedAccount, error)
	Rollback(ctx context.Context, id uuid.UUID) error
}
