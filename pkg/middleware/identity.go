package middleware

import (
	"net/http"
	"strings"

	"github.com/Incognitol07/event-management-system-sub001/pkg/response"
	"github.com/gin-gonic/gin"
)

// The gateway authenticates callers and forwards identity in these headers.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"

	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)

// Identity copies caller identity headers into the gin context.
// Requests without X-User-ID are rejected with 401 when required is true.
func Identity(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" && required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Failure("UNAUTHORIZED", "X-User-ID header is required", nil))
			return
		}
		if userID != "" {
			c.Set(ContextKeyUserID, userID)
		}
		if role := strings.TrimSpace(c.GetHeader(UserRoleHeader)); role != "" {
			c.Set(ContextKeyUserRole, strings.ToUpper(role))
		}
		c.Next()
	}
}

// GetUserID returns the caller id set by Identity
func GetUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// GetUserRole returns the upper-cased caller role, empty when absent
func GetUserRole(c *gin.Context) string {
	return c.GetString(ContextKeyUserRole)
}
