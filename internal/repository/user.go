package repository

import (
	"context"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
)

// UserRepository persists registered users. Implementations return
// domain.ErrUserNotFound for lookup misses and domain.ErrDuplicateIdentity
// when the email is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Ping(ctx context.Context) error
}
