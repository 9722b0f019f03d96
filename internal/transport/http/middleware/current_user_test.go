package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
	"github.com/ErlanBelekov/jwt-auth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type fakeUserFinder struct {
	findByID func(ctx context.Context, id int64) (*domain.User, error)
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return f.findByID(ctx, id)
}

// newCurrentUserEngine stubs Auth by setting the claims directly.
func newCurrentUserEngine(users *fakeUserFinder, email string) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	r := gin.New()
	r.GET("/me",
		func(c *gin.Context) {
			c.Set(middleware.UserIDKey, int64(3))
			c.Set(middleware.EmailKey, email)
		},
		middleware.CurrentUser(users, logger),
		func(c *gin.Context) {
			user := c.MustGet(middleware.CurrentUserKey).(*domain.User)
			c.String(http.StatusOK, "%s", user.Username)
		},
	)
	return r
}

func TestCurrentUser(t *testing.T) {
	alice := &domain.User{ID: 3, Email: "a@x.com", Username: "alice"}

	tests := []struct {
		name     string
		email    string
		findByID func(ctx context.Context, id int64) (*domain.User, error)
		want     int
	}{
		{
			name:  "found",
			email: "a@x.com",
			findByID: func(_ context.Context, id int64) (*domain.User, error) {
				if id != 3 {
					return nil, domain.ErrUserNotFound
				}
				return alice, nil
			},
			want: http.StatusOK,
		},
		{
			name:  "deleted user",
			email: "a@x.com",
			findByID: func(_ context.Context, _ int64) (*domain.User, error) {
				return nil, domain.ErrUserNotFound
			},
			want: http.StatusUnauthorized,
		},
		{
			name:  "subject mismatch",
			email: "someone-else@x.com",
			findByID: func(_ context.Context, _ int64) (*domain.User, error) {
				return alice, nil
			},
			want: http.StatusUnauthorized,
		},
		{
			name:  "storage failure",
			email: "a@x.com",
			findByID: func(_ context.Context, _ int64) (*domain.User, error) {
				return nil, errors.New("db down")
			},
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			newCurrentUserEngine(&fakeUserFinder{findByID: tt.findByID}, tt.email).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
