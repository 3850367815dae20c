package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig configures CORSWithConfig. An origin entry may be "*", an exact
// origin, or a subdomain pattern such as "https://*.shop.example" for preview
// deployments of the storefront.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin until origins are configured
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Accept", "Accept-Language", "Authorization", "Cache-Control",
			"Content-Type", "Idempotency-Key", "Origin", RequestIDHeader,
		},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS applies DefaultCORSConfig
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

type originMatcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []subdomainPattern
}

type subdomainPattern struct {
	scheme string // "https://"
	suffix string // ".shop.example"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "*")
			m.suffixes = append(m.suffixes, subdomainPattern{scheme: scheme, suffix: host})
		default:
			m.exact[o] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, p := range m.suffixes {
		rest, ok := strings.CutPrefix(origin, p.scheme)
		if ok && len(rest) > len(p.suffix) && strings.HasSuffix(rest, p.suffix) {
			return true
		}
	}
	return false
}

// CORSWithConfig answers preflights itself and sets CORS headers on requests
// from allowed origins. Credentials are never allowed with a "*" origin.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	origins := newOriginMatcher(cfg.AllowOrigins)
	static := http.Header{}
	static.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
	static.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
	if len(cfg.ExposeHeaders) > 0 {
		static.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
	}
	if cfg.MaxAge > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		allowed := ""
		if origins.any {
			allowed = "*"
		} else if origin != "" && origins.allows(origin) {
			allowed = origin
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			for k, v := range static {
				h[k] = v
			}
		}

		// preflights never reach the router, allowed or not
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
