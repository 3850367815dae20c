package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPDurationBuckets are the latency histogram boundaries in seconds.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var sizeBuckets = []float64{100, 1000, 10_000, 100_000, 1_000_000, 5_000_000, 10_000_000}

type httpMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestSize     metric.Int64Histogram
	responseSize    metric.Int64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error
	if m.requestTotal, err = meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.requestDuration, err = meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency distribution in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(HTTPDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if m.requestSize, err = meter.Int64Histogram("http_server_request_size_bytes",
		metric.WithDescription("HTTP request body size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(sizeBuckets...),
	); err != nil {
		return nil, err
	}
	if m.responseSize, err = meter.Int64Histogram("http_server_response_size_bytes",
		metric.WithDescription("HTTP response body size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(sizeBuckets...),
	); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request count, latency and sizes. Routes are recorded by
// pattern so ids in the path do not explode cardinality; unmatched requests
// are grouped under "unmatched". A nil meter or a meter that fails to create
// instruments disables the middleware.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(context.WithoutCancel(ctx), -1)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		m.requestTotal.Add(ctx, 1, attrs)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if c.Request.ContentLength > 0 {
			m.requestSize.Record(ctx, c.Request.ContentLength, attrs)
		}
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, int64(size), attrs)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
