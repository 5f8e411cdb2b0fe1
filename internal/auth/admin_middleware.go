package auth

import (
	"context"
	"net/http"

	"tabletop/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// UserLookup loads the authenticated user for role checks.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AdminMiddleware creates a gin middleware to check for admin role.
// It must be used AFTER the standard AuthMiddleware.
func AdminMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c)
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
			return
		}

		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
