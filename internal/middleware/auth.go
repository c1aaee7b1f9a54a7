package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artisans-echo/artwork-service/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
)

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !authenticate(c, verifier, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the caller identity when a token is supplied. A token
// that is present but invalid is still rejected.
func OptionalAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, verifier, authHeader) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, verifier auth.Verifier, authHeader string) bool {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid authorization header format",
		})
		return false
	}

	claims, err := verifier.Verify(parts[1])
	if err != nil {
		message := "Invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			message = "Token expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
		return false
	}

	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextUserName, claims.Name)
	return true
}

// Identity returns the verified caller email, or "" when the request is
// unauthenticated.
func Identity(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}
