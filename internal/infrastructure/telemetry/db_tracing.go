package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingPlugins returns the gorm plugins that create a span per query.
// Query arguments are left out of the spans since they carry customer data.
func DBTracingPlugins(enabled bool, dbName string, logger *zap.Logger) []gorm.Plugin {
	if !enabled {
		return nil
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.String("db_name", dbName))
	}
	return []gorm.Plugin{
		otelgorm.NewPlugin(
			otelgorm.WithDBName(dbName),
			otelgorm.WithoutQueryVariables(),
		),
	}
}
