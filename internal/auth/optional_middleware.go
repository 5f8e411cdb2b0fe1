package auth

import "github.com/gin-gonic/gin"

// OptionalAuthMiddleware inspects for a token and sets the userID if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if userID, err := tokens.ParseToken(tokenString); err == nil {
				c.Set(ContextUserID, userID)
			}
		}
		c.Next()
	}
}
