package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig selects the optional security headers
type SecurityConfig struct {
	// HSTS is only sent when the API is served over HTTPS
	HSTS                  bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// Empty values omit the header
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityConfig suits a JSON and PDF API without HTTPS termination
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		PermissionsPolicy:     "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Secure applies DefaultSecurityConfig
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig sets the same security headers on every response
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := http.Header{}
	headers.Set("X-Frame-Options", "DENY")
	headers.Set("X-Content-Type-Options", "nosniff")
	headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	headers.Set("Cross-Origin-Opener-Policy", "same-origin")
	headers.Set("Cross-Origin-Resource-Policy", "same-site")
	headers.Set("X-DNS-Prefetch-Control", "off")
	if cfg.ContentSecurityPolicy != "" {
		headers.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	}
	if cfg.PermissionsPolicy != "" {
		headers.Set("Permissions-Policy", cfg.PermissionsPolicy)
	}
	if cfg.HSTS {
		hsts := fmt.Sprintf("max-age=%d", int64(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers.Set("Strict-Transport-Security", hsts)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h[k] = v
		}
		c.Next()
	}
}
