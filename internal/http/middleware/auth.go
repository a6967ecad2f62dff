package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userEmailKey = "user_email"

// TokenParser validates a bearer token and returns the user's email.
type TokenParser func(token string) (string, error)

// AuthRequired rejects requests without a valid "Authorization: Bearer" token.
func AuthRequired(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "missing bearer token",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}
		email, err := parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "invalid or expired token",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Set(userEmailKey, email)
		c.Next()
	}
}

// GetUserEmail returns the authenticated email set by AuthRequired.
func GetUserEmail(c *gin.Context) string {
	if v, ok := c.Get(userEmailKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetUserEmail is used by tests that bypass token parsing.
func SetUserEmail(c *gin.Context, email string) {
	c.Set(userEmailKey, email)
}
