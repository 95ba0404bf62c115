// Package db provides database connectivity and schema migration.
package db

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veltra/genflow/internal/db/models"
)

// Options represents database connection configuration.
type Options struct {
	DSN      string
	LogLevel logger.LogLevel
}

// New opens a postgres connection and runs migrations.
func New(opts Options) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	gdb, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate applies the schema for all persisted records.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.GenerationJob{},
		&models.PersonaPipeline{},
	)
}
