package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLanguage(t *testing.T) {
	router := gin.New()
	router.Use(Language())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetLanguage(c))
	})

	tests := []struct {
		name   string
		query  string
		header string
		want   string
	}{
		{"default", "", "", "en"},
		{"accept-language", "", "ar-EG,ar;q=0.9,en;q=0.8", "ar"},
		{"query wins", "?lang=en", "ar", "en"},
		{"unsupported query falls back to header", "?lang=de", "ar", "ar"},
		{"unsupported everything", "?lang=de", "fr-FR", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Body.String())
			assert.Equal(t, tt.want, w.Header().Get("Content-Language"))
		})
	}
}

func TestGetLanguage_Default(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "en", GetLanguage(c))
}
