package middleware

import (
	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// contextKey is a private type for context keys to prevent collisions.
type contextKey string

const (
	loggerKey   = contextKey("logger")
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if v := c.Request.Context().Value(userIDKey); v != nil {
			if id, ok := v.(string); ok {
				return id, true
			}
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}
	return userID, true
}

// GetUserRoleFromContext retrieves the authenticated user's normalized
// role from the Gin context. Unauthenticated or malformed contexts yield
// RoleUnknown, which matches nothing downstream.
func GetUserRoleFromContext(c *gin.Context) domain.Role {
	roleVal, exists := c.Get(string(userRoleKey))
	if !exists {
		if v := c.Request.Context().Value(userRoleKey); v != nil {
			if role, ok := v.(domain.Role); ok {
				return role
			}
		}
		return domain.RoleUnknown
	}

	role, ok := roleVal.(domain.Role)
	if !ok {
		return domain.RoleUnknown
	}
	return role
}
