package middleware

import (
	"github.com/ErlanBelekov/jwt-auth/internal/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID propagates a well-formed X-Request-ID or generates a UUID v4,
// and stores it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.Accept(c.GetHeader(requestid.Header))

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestid.Header, id)
		c.Next()
	}
}
