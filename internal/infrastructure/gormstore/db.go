// Package gormstore maps the site's content tables (blog posts, projects and
// contact messages) through gorm on top of the connection owned by sqlstore.
// The schema itself is created by the sqlstore migrations.
package gormstore

import (
	"fmt"

	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(db *sqlstore.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch db.Driver() {
	case sqlstore.DriverPostgres:
		dialector = postgres.New(postgres.Config{Conn: db.DB.DB})
	case sqlstore.DriverSQLite:
		dialector = &sqlite.Dialector{Conn: db.DB.DB}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.Driver())
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}
	return gdb, nil
}
