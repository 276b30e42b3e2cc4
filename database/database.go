package database

import (
	"context"
	"fmt"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/postgres"
	"github.com/abdoelhafi/file-loader-app/database/sqlite"
)

// Config holds the configuration for connecting to a record backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the configured table names
	Tables fileloader.Tables `mapstructure:"tables"`
}

// Database is a connected record backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate creates missing tables and indexes. It is safe to run repeatedly.
	Migrate(ctx context.Context) error
	// Validate checks the existing tables have the expected columns.
	Validate(ctx context.Context) error
	GetRepo() fileloader.UploadRepo
	Close() error
}

// Connect opens the configured backend. It does not migrate or validate;
// callers decide which of the two to run.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
