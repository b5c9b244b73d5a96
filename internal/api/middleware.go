package api

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

// Authenticator validates access tokens
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <access token>" header
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "Given token not valid for any token type")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func currentClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey)
	return claims.(*auth.Claims)
}
