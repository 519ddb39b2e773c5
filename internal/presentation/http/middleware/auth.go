package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
	"github.com/sangkips/posync/pkg/utils"
)

// Identity exposes the claims of the session handed over by the UI
type Identity interface {
	Claims() (*utils.BearerClaims, error)
}

// SessionMiddleware puts the signed-in user into the gin context when a
// session exists. Requests without one continue.
func SessionMiddleware(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := identity.Claims()
		if err == nil {
			c.Set("user_id", claims.UserID())
			c.Set("user_email", claims.Email)
		}
		c.Next()
	}
}

// RequireSession rejects requests when no user has signed in on this device
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			response.Unauthorized(c, "No active session")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
