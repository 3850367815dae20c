package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func corsRequest(method, origin string) *http.Request {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCORS_DefaultAllowsNoOrigin(t *testing.T) {
	router := okRouter(CORS())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, corsRequest(http.MethodGet, "http://malicious.example"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, corsRequest(http.MethodOptions, "http://malicious.example"))
	assert.Equal(t, http.StatusNoContent, w.Code, "preflight answered without reaching the router")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://shop.example.com", "https://*.preview.example.com"}
	cfg.MaxAge = 90 * time.Minute
	router := okRouter(CORSWithConfig(cfg))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://shop.example.com", true},
		{"https://pr-42.preview.example.com", true},
		{"https://a.b.preview.example.com", true},
		{"https://preview.example.com", false},
		{"https://.preview.example.com", false},
		{"http://pr-42.preview.example.com", false},
		{"https://evilpreview.example.com", false},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, corsRequest(http.MethodGet, tt.origin))
			assert.Equal(t, http.StatusOK, w.Code)
			if !tt.allowed {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				return
			}
			assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
		})
	}

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, corsRequest(http.MethodOptions, "https://shop.example.com"))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "5400", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})
}

func TestCORS_WildcardNeverAllowsCredentials(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}
	w := httptest.NewRecorder()
	okRouter(CORSWithConfig(cfg)).ServeHTTP(w, corsRequest(http.MethodGet, "https://any.example.com"))

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, w.Header().Get("Vary"))
}
