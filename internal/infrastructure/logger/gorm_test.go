package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func sqlFn() (string, int64) { return "SELECT * FROM products", 3 }

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn, errors.New("syntax"))
		assert.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("record not found logged when configured", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn, WithIgnoreRecordNotFoundError(false))
		l.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-1")
		l.Trace(ctx, time.Now().Add(-time.Second), sqlFn, nil)

		entries := logs.FilterMessage("Slow SQL").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
		assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
	})

	t.Run("normal query only at info", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		NewGormLogger(zap.New(core), gormlogger.Warn).Trace(context.Background(), time.Now(), sqlFn, nil)
		assert.Zero(t, logs.Len())

		NewGormLogger(zap.New(core), gormlogger.Info).Trace(context.Background(), time.Now(), sqlFn, nil)
		assert.Equal(t, 1, logs.FilterMessage("SQL query").Len())
	})

	t.Run("silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Info).LogMode(gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), sqlFn, errors.New("x"))
		assert.Zero(t, logs.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}

func TestGormLogger_TruncatesLongSQL(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Info, WithMaxSQLLength(16))
	long := func() (string, int64) { return "SELECT * FROM products WHERE id IN (1,2,3,4,5)", 5 }
	l.Trace(context.Background(), time.Now(), long, nil)

	entries := logs.FilterMessage("SQL query").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "SELECT * FROM pr... (46 bytes)", entries[0].ContextMap()["sql"])
	}
}

func TestGormLogger_Printf(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn)
	l.Info(context.Background(), "migrated %d tables", 3)
	l.Warn(context.Background(), "deprecated %s", "option")

	all := logs.All()
	if assert.Len(t, all, 1) {
		assert.Equal(t, "deprecated option", all[0].Message)
		assert.Equal(t, "gorm", all[0].LoggerName)
	}
}
