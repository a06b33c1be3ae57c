// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. RequireAuth() parses and
// verifies the Authorization header and stores the authenticated user ID in
// the Gin context, where handlers retrieve it via UserIDFrom().
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the Gin context key under which the authenticated user ID is stored.
const userIDKey = "userID"

// TokenParser verifies a compact token string and returns the subject user ID.
//
// The concrete implementation lives in the auth package; middleware depends on
// this narrow seam so it can be tested without real key material.
type TokenParser interface {
	Parse(token string) (string, error)
}

// UserIDFrom returns the authenticated user ID stored by RequireAuth.
// The second return value indicates presence.
func UserIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// RequireAuth enforces a valid "Authorization: Bearer <token>" header.
//
// Behavior:
//   - Missing or malformed header: responds 401 with a compact error body.
//   - Invalid, expired, or forged token: responds 401.
//   - On success: stores the subject user ID in the context and continues.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "missing or malformed Authorization header",
			})
			return
		}

		userID, err := tokens.Parse(strings.TrimSpace(raw[len(prefix):]))
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}
