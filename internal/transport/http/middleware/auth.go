package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	ctxlog "github.com/ErlanBelekov/jwt-auth/internal/log"
	"github.com/ErlanBelekov/jwt-auth/internal/metrics"
	"github.com/ErlanBelekov/jwt-auth/internal/token"
	"github.com/gin-gonic/gin"
)

const errUnauthorized = "Could not validate credentials"

// Context keys set by Auth.
const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

type tokenVerifier interface {
	Verify(raw string, now time.Time) (*token.Claims, error)
}

// Auth verifies a Bearer access token and sets UserIDKey (int64) and EmailKey
// in the gin context.
func Auth(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
			unauthorized(c)
			return
		}

		claims, err := verifier.Verify(raw, time.Now())
		if err != nil {
			metrics.TokenVerificationsTotal.WithLabelValues(verifyResult(err)).Inc()
			unauthorized(c)
			return
		}
		metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Subject)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
