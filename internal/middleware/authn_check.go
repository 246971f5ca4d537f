package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"io.winapps.traveljournal/internal/auth"
)

const (
	TokenCookie  = "token"
	bearerPrefix = "Bearer "
)

// AuthMiddleware resolves the caller from the session cookie or a bearer
// header. Verifiers are tried in order; the first that accepts the token
// decides the identity, stored under "uid".
func AuthMiddleware(verifiers ...auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token, not authenticated"})
			return
		}

		var userUID string
		for _, v := range verifiers {
			uid, err := v.Verify(c.Request.Context(), token)
			if err == nil && uid != "" {
				userUID = uid
				break
			}
		}

		if userUID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("uid", userUID)
		c.Next()
	}
}

// tokenFromRequest prefers the cookie; a bearer header covers non-browser clients.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}
