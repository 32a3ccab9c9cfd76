package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campool/internal/infra"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "uid"

// Auth verifies the bearer token and injects the authenticated user id. Every
// ride operation trusts this id; handlers never take a caller id from the
// request body.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(UserIDKey, token.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
