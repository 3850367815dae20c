package telemetry

import (
	"context"
	"fmt"

	"github.com/perfume/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/perfume/backend"

// LoggerProvider wraps the OpenTelemetry LoggerProvider with lifecycle management.
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
	logger   *zap.Logger
}

// NewLoggerProvider exports log records over OTLP gRPC when logs are enabled
func NewLoggerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, logger *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{logger: logger}
	if !cfg.LogsEnabled {
		logger.Info("OTLP logs disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	lp.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.provider)

	logger.Info("OpenTelemetry LoggerProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
	)
	return lp, nil
}

// NewLoggerProviderFromSDK wraps an existing SDK provider
func NewLoggerProviderFromSDK(provider *sdklog.LoggerProvider, logger *zap.Logger) *LoggerProvider {
	return &LoggerProvider{provider: provider, logger: logger}
}

// Core returns a zap core bridging records at or above level to OpenTelemetry.
// Tee it with the console core so logs go to both.
func (lp *LoggerProvider) Core(level zapcore.LevelEnabler) zapcore.Core {
	if lp.provider == nil {
		return zapcore.NewNopCore()
	}
	return &levelFilterCore{
		Core:  otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(lp.provider)),
		level: level,
	}
}

// IsEnabled returns whether log records are exported
func (lp *LoggerProvider) IsEnabled() bool {
	return lp.provider != nil
}

// Shutdown flushes pending records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	if err := lp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown logger provider: %w", err)
	}
	return nil
}

// levelFilterCore adds a minimum level to the otelzap core, which has none
type levelFilterCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), level: c.level}
}
