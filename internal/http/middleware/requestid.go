// README: Request id middleware; reuses X-Request-ID or mints a UUID.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voyage/internal/observability"
)

const RequestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
