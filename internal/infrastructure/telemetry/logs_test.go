package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// recordingProcessor keeps emitted records in memory
type recordingProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }

func (p *recordingProcessor) Shutdown(context.Context) error   { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func (p *recordingProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestLoggerProvider_CoreFiltersLevel(t *testing.T) {
	proc := &recordingProcessor{}
	lp := NewLoggerProviderFromSDK(sdklog.NewLoggerProvider(sdklog.WithProcessor(proc)), zap.NewNop())
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	require.True(t, lp.IsEnabled())

	logger := zap.New(lp.Core(zapcore.WarnLevel)).With(zap.String("order_number", "ORD-1"))
	logger.Info("order placed")
	logger.Warn("payment declined")
	logger.Error("capture failed")

	assert.Equal(t, []string{"payment declined", "capture failed"}, proc.bodies())
}

func TestLoggerProvider_DisabledCore(t *testing.T) {
	lp := &LoggerProvider{logger: zap.NewNop()}
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.Core(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}
