// Gin middleware enforcing bearer token auth.
package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware enforces bearer token auth and injects claims into the request
// context.
func Middleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			respondUnauthorized(c, "auth not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("auth failure: missing Authorization header path=%s", c.Request.URL.Path)
			respondUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := extractBearerToken(authHeader)
		if !ok {
			log.Printf("auth failure: malformed Authorization header path=%s", c.Request.URL.Path)
			respondUnauthorized(c, "invalid authorization header")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			log.Printf("auth failure: token invalid path=%s err=%v", c.Request.URL.Path, err)
			respondUnauthorized(c, "invalid token")
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
