package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"report-backend/internal/shared/auth"
	"report-backend/internal/shared/server/respond"
)

const (
	userIDKey = "userId"
	// DevUserHeader carries the owner id in dev-like environments.
	DevUserHeader = "X-User-Id"
)

// Auth resolves the owner identity from a bearer token, or from DevUserHeader when allowDevHeader is set.
func Auth(verifier *auth.Verifier, allowDevHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" || verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject())
			c.Next()
			return
		}

		if allowDevHeader {
			if id := strings.TrimSpace(c.GetHeader(DevUserHeader)); id != "" {
				c.Set(userIDKey, id)
				c.Next()
				return
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
