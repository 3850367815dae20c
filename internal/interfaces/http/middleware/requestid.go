// Package middleware provides the HTTP middleware of the storefront API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/infrastructure/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = logger.GinRequestIDKey

	// MaxRequestIDLength bounds client supplied request ids
	MaxRequestIDLength = 128
)

// RequestID tags each request with an id, echoed in the response header. A
// client supplied id is kept when it is short and printable, so it is safe
// to log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if b := id[i]; b < 0x21 || b > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the id set by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
