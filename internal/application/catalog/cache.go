package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CacheNamespace holds every cached catalog read. Any catalog write
// invalidates the whole namespace.
const CacheNamespace = "catalog"

// DefaultCacheTTL is used when no TTL is configured
const DefaultCacheTTL = 5 * time.Minute

// Cache stores JSON encoded read models
type Cache interface {
	Get(ctx context.Context, namespace, key string, dest any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// readThrough returns the cached value for key or loads, caches and returns it.
// Cache failures only cost a database read.
func readThrough[T any](ctx context.Context, c Cache, ttl time.Duration, logger *zap.Logger, key string, load func() (T, error)) (T, error) {
	var cached T
	if c != nil {
		hit, err := c.Get(ctx, CacheNamespace, key, &cached)
		if err != nil {
			logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if c != nil {
		if err := c.Set(ctx, CacheNamespace, key, v, ttl); err != nil {
			logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

func invalidate(ctx context.Context, c Cache, logger *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.InvalidateNamespace(ctx, CacheNamespace); err != nil {
		logger.Error("Catalog cache invalidation failed", zap.Error(err))
	}
}

// listCacheKey encodes every listing parameter that changes the result
func listCacheKey(lang string, req ListProductsRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "products:%s:p%d:s%d:o%s.%s", lang, req.Page, req.PageSize, req.OrderBy, req.OrderDir)
	fmt.Fprintf(&b, ":q%q:g%s:b%q:c%s", strings.ToLower(req.Search), req.Gender, strings.ToLower(req.Brand), req.Category)
	if req.CategoryID != nil {
		fmt.Fprintf(&b, ":cid%s", req.CategoryID)
	}
	if req.Featured != nil {
		fmt.Fprintf(&b, ":f%t", *req.Featured)
	}
	if req.MinPrice != nil {
		fmt.Fprintf(&b, ":min%s", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		fmt.Fprintf(&b, ":max%s", *req.MaxPrice)
	}
	fmt.Fprintf(&b, ":i%t", req.InStock)
	return b.String()
}
