package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

// Authorize runs the access guard before the handler. Roles empty means any
// authenticated caller; the target comes from the studentId and classId path
// parameters, falling back to the query string.
func Authorize(guard *authz.Guard, roles ...models.UserRole) gin.HandlerFunc {
	allowed := append([]models.UserRole(nil), roles...)
	return func(c *gin.Context) {
		target := authz.Target{
			StudentID: paramOrQuery(c, "studentId"),
			ClassID:   paramOrQuery(c, "classId"),
		}
		if err := guard.Authorize(c.Request.Context(), PrincipalFromContext(c), allowed, target); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func paramOrQuery(c *gin.Context, key string) string {
	if v := c.Param(key); v != "" {
		return v
	}
	return c.Query(key)
}
