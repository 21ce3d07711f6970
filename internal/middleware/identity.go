package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/uuid"
)

// userIDHeader carries the verified user identity resolved by the upstream
// gateway. Authentication itself happens there; this service trusts the
// header and only checks that it is present and well-formed.
const userIDHeader = "X-User-ID"

// Identity returns a middleware that extracts the trusted user ID from the
// request and stores it on the Gin context. Requests without a valid ID
// are rejected before reaching any handler.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(userIDHeader)
		if id == "" || !uuid.IsValid(id) {
			c.AbortWithStatusJSON(apperrors.ErrUnauthorized.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrUnauthorized.Code,
					"message": apperrors.ErrUnauthorized.Message,
				},
			})
			return
		}
		c.Set("userID", id)
		c.Next()
	}
}
