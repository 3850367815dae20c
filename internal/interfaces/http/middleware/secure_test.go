package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecure(t *testing.T) {
	w := httptest.NewRecorder()
	okRouter(Secure()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureWithConfig(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTS = true
	cfg.HSTSPreload = true
	cfg.PermissionsPolicy = ""
	w := httptest.NewRecorder()
	okRouter(SecureWithConfig(cfg)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, w.Header().Get("Permissions-Policy"))
}
