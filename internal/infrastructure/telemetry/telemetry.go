// Package telemetry wires OpenTelemetry traces, metrics and logs plus the
// Pyroscope continuous profiler.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perfume/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

// Telemetry owns every provider started for the process
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	logger   *zap.Logger
}

// Setup starts the providers enabled in cfg. Disabled ones are no-ops, so the
// result is always safe to use and to shut down.
func Setup(ctx context.Context, cfg config.TelemetryConfig, prof config.ProfilingConfig, version string, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res, err := newResource(cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	t := &Telemetry{logger: logger}
	if t.Profiler, err = NewProfiler(prof, cfg.ServiceName, logger); err != nil {
		return nil, err
	}
	if t.Tracer, err = NewTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Profiler.Stop())
	}
	if prof.Enabled && prof.SpanProfiles {
		t.Tracer.EnableSpanProfiles()
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	return t, nil
}

// LogCore returns the zap core that forwards records to the OTLP log pipeline
func (t *Telemetry) LogCore(level zapcore.LevelEnabler) zapcore.Core {
	if t.Logs == nil {
		return zapcore.NewNopCore()
	}
	return t.Logs.Core(level)
}

// Shutdown flushes and stops every provider, newest first
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	return errors.Join(errs...)
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = "perfume-backend"
	}
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
