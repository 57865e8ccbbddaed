package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paperfour/tandem/internal/auth"
)

const studentIDKey = "studentID"

// Auth validates the Authorization: Bearer <jwt> header and injects the
// authenticated student id into the request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "no token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "bad token"})
			return
		}
		c.Set(studentIDKey, claims.StudentID)
		c.Next()
	}
}

// StudentID returns the authenticated student id set by Auth.
func StudentID(c *gin.Context) string {
	return c.GetString(studentIDKey)
}
