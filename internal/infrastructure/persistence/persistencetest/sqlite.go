// Package persistencetest opens throwaway databases for tests of packages
// that sit on top of the repositories.
package persistencetest

import (
	"testing"

	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite opens an in-memory sqlite database with every table migrated.
// The pool is pinned to one connection so all queries, transactions
// included, see the same memory database.
func NewSQLite(t testing.TB) *persistence.Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return persistence.NewDatabaseFromGorm(db, nil)
}
