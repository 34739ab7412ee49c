package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// OpenSQLite opens a file-backed (or ":memory:"/"file:...?mode=memory") SQLite
// database. It is meant for local runs and the CLI, not for production.
func OpenSQLite(logg *logger.Logger, path string) (*gorm.DB, error) {
	if path == "" {
		path = "fitprint.db"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite %q: %w", path, err)
	}
	// SQLite has a single writer; serialize through one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	logg.With("service", "SQLiteService").Info("Opened SQLite", "path", path)
	return db, nil
}
