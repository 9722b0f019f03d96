// Package memory keeps users in process memory. It backs ENV=local without a
// DATABASE_URL and end-to-end tests; data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
)

type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrDuplicateIdentity
	}

	r.nextID++
	stored := &domain.User{
		ID:           r.nextID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID

	return copyUser(stored), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(r.byID[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) Ping(_ context.Context) error {
	return nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}
