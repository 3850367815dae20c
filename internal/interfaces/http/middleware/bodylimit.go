package middleware

import (
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Requests under
// one of the exempt path prefixes are left to a route level limit, which is
// how media uploads get a larger allowance.
func BodyLimit(maxBytes int64, exemptPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range exemptPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds the maximum of "+humanize.IBytes(uint64(maxBytes)),
				GetRequestID(c),
			))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
