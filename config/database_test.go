package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/cppla/filehub/models"
)

func TestInitDatabaseSQLiteMigrates(t *testing.T) {
	cfg := AppConfig{
		DBDriver:    DriverSQLite,
		DatabaseURI: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:    "silent",
	}
	db, err := InitDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.True(t, db.Migrator().HasTable(&models.File{}))
	assert.True(t, db.Migrator().HasColumn(&models.File{}, "deleted_at"))

	// running again on an existing schema is a no-op
	db2, err := InitDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB2, _ := db2.DB()
	_ = sqlDB2.Close()
}

func TestInitDatabaseUnsupportedDriver(t *testing.T) {
	_, err := InitDatabase(AppConfig{DBDriver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Warn, toGormLogLevel("info"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
}
