package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig selects which requests are labelled in CPU profiles
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips health probes and static uploads
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/uploads"},
	}
}

// Profiling applies DefaultProfilingConfig
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig labels the CPU samples taken while a request runs with
// its API area, route and method, so profiles can be filtered per endpoint
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok || hasAnyPrefix(path, cfg.SkipPathPrefixes) {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		labels := pyroscope.Labels("area", apiArea(route), "route", route, "method", c.Request.Method)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// apiArea returns the first segment after the version prefix, e.g. "orders"
// for /api/v1/orders/:id
func apiArea(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return "other"
	}
	_, rest, _ = strings.Cut(rest, "/")
	area, _, _ := strings.Cut(rest, "/")
	if area == "" {
		return "other"
	}
	return area
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
