package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
	"github.com/gin-gonic/gin"
)

// CurrentUserKey holds the *domain.User loaded by CurrentUser.
const CurrentUserKey = "currentUser"

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// CurrentUser runs after Auth. It loads the token's user and rejects tokens
// whose account no longer exists or whose subject no longer matches it.
func CurrentUser(users userFinder, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "current_user")

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, err := users.FindByID(ctx, c.GetInt64(UserIDKey))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				unauthorized(c)
				return
			}
			logger.ErrorContext(ctx, "load current user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if user.Email != c.GetString(EmailKey) {
			unauthorized(c)
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}
