package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	// catalog filters expand into long IN lists; the tail adds nothing
	defaultMaxSQLLength = 2048
)

// GormLogger routes gorm output through zap, tagged with the request id and
// trace of the calling request
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	maxSQLLength  int
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold. Zero disables slow query warnings.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = threshold }
}

// WithIgnoreRecordNotFoundError controls whether ErrRecordNotFound is logged
// as a SQL error. Lookups by slug or id miss routinely, so it is ignored by
// default.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.logNotFound = !ignore }
}

// WithMaxSQLLength truncates logged statements. Zero logs them whole.
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) { l.maxSQLLength = n }
}

// NewGormLogger creates a gorm logger writing to base under the "gorm" name
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		logger:        base.Named("gorm"),
		level:         level,
		slowThreshold: defaultSlowThreshold,
		maxSQLLength:  defaultMaxSQLLength,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode returns a copy logging at level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, enabled gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < enabled {
		return
	}
	l.forContext(ctx).Log(lvl, fmt.Sprintf(msg, data...))
}

// Trace logs failed statements at error, slow ones at warn and, at gorm's
// Info level, every other statement at debug
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var msg string
	var extra zap.Field
	lvl := zapcore.DebugLevel
	switch {
	case err != nil && l.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) && !l.logNotFound {
			return
		}
		msg, lvl, extra = "SQL error", zapcore.ErrorLevel, zap.Error(err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		msg, lvl, extra = "Slow SQL", zapcore.WarnLevel, zap.Duration("threshold", l.slowThreshold)
	case l.level >= gormlogger.Info:
		msg, extra = "SQL query", zap.Skip()
	default:
		return
	}

	sql, rows := fc()
	l.forContext(ctx).Log(lvl, msg,
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.truncate(sql)),
		extra,
	)
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return sql
	}
	return sql[:l.maxSQLLength] + fmt.Sprintf("... (%d bytes)", len(sql))
}

func (l *GormLogger) forContext(ctx context.Context) *zap.Logger {
	log := l.logger
	if id := GetRequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return WithTraceContext(ctx, log)
}

// MapGormLogLevel maps the application log level to gorm's. Statements are
// only traced when the application logs at debug or info.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
