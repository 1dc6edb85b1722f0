package repositories

import (
	"context"
	"errors"

	"pintu/internal/models"
)

var (
	// ErrUserNotFound is returned when no row matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when a write would give two users the same username.
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository defines the interface for user data access.
//
// Callers may pre-check username availability with GetByUsername, but that
// check races with concurrent writers. Implementations MUST enforce username
// uniqueness at write time and report a violation from Create or
// UpdateUsername as ErrDuplicateUsername; that constraint is the invariant,
// the pre-check is only a fast path.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUsername(ctx context.Context, id uint, username string) error
	UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error
}
