package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/perfume/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Health status values
const (
	StatusUp   = "up"
	StatusDown = "down"
)

const healthPingTimeout = 2 * time.Second

// Database holds the gorm connection and the pool it manages
type Database struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// Option configures NewDatabase
type Option func(*options)

type options struct {
	gormLogger gormlogger.Interface
	dialector  gorm.Dialector
	plugins    []gorm.Plugin
}

// WithGormLogger sets the gorm logger. The default is silent.
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *options) { o.gormLogger = l }
}

// WithDialector replaces the postgres dialector, e.g. with sqlite or sqlmock in tests
func WithDialector(d gorm.Dialector) Option {
	return func(o *options) { o.dialector = d }
}

// WithPlugins registers gorm plugins such as tracing
func WithPlugins(plugins ...gorm.Plugin) Option {
	return func(o *options) { o.plugins = append(o.plugins, plugins...) }
}

// NewDatabase connects to the database. Each attempt opens the pool, applies
// the pool limits and pings. Failed attempts are retried cfg.ConnectRetries
// times in total with a fixed cfg.ConnectRetryDelay between them; the last
// error is returned. Cancelling ctx stops the loop.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger, opts ...Option) (*Database, error) {
	o := &options{gormLogger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	err := retry.Do(
		func() error {
			conn, err := open(ctx, cfg, o)
			if err != nil {
				return err
			}
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(cfg.ConnectRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warn("Database connection attempt failed",
				zap.Uint("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Duration("retry_in", cfg.ConnectRetryDelay),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
	}

	for _, p := range o.plugins {
		if err := db.Use(p); err != nil {
			if ownsPool(o.dialector) {
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					_ = sqlDB.Close()
				}
			}
			return nil, fmt.Errorf("failed to register gorm plugin %s: %w", p.Name(), err)
		}
	}

	log.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName),
	)
	return &Database{DB: db, logger: log}, nil
}

// NewDatabaseFromGorm wraps an already opened connection
func NewDatabaseFromGorm(db *gorm.DB, log *zap.Logger) *Database {
	if log == nil {
		log = zap.NewNop()
	}
	return &Database{DB: db, logger: log}
}

func open(ctx context.Context, cfg *config.DatabaseConfig, o *options) (*gorm.DB, error) {
	dialector := o.dialector
	if dialector == nil {
		dialector = postgres.Open(cfg.DSN())
	}
	ownsConn := ownsPool(o.dialector)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		if ownsConn {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ownsPool reports whether gorm opens the pool itself. A postgres dialector
// built around an existing connection leaves it to the caller.
func ownsPool(d gorm.Dialector) bool {
	if pd, ok := d.(*postgres.Dialector); ok && pd.Config != nil {
		return pd.Conn == nil
	}
	return true
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}

// HealthStatus reports the state of a backing service
type HealthStatus struct {
	Status          string        `json:"status"`
	Latency         time.Duration `json:"latency_ns"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	Error           string        `json:"error,omitempty"`
}

// IsUp reports whether the status is up
func (h HealthStatus) IsUp() bool {
	return h.Status == StatusUp
}

// Health pings the database with a short timeout and reports pool usage
func (d *Database) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	start := time.Now()
	err := d.Ping(ctx)
	h := HealthStatus{Status: StatusUp, Latency: time.Since(start)}
	if err != nil {
		h.Status = StatusDown
		h.Error = err.Error()
		d.logger.Warn("Database health check failed", zap.Error(err))
	}
	if stats, statsErr := d.Stats(); statsErr == nil {
		h.OpenConnections = stats.OpenConnections
		h.InUse = stats.InUse
		h.Idle = stats.Idle
	}
	return h
}

// Transaction runs fn inside a transaction. Repositories called with the
// context passed to fn use the transaction.
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		// already inside a transaction: join it
		return fn(ctx)
	}
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextWithTx(ctx, tx))
	})
}

// WithinTransaction implements shared.TransactionManager
func (d *Database) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.Transaction(ctx, fn)
}
