package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/config"
	"github.com/abdoelhafi/file-loader-app/database"
	"github.com/abdoelhafi/file-loader-app/filesystem"
	"github.com/abdoelhafi/file-loader-app/s3"
)

// app holds the long-lived dependencies shared by the server and admin commands.
type app struct {
	db      database.Database
	store   fileloader.ObjectStore
	service *fileloader.UploadService
	closers []func()
}

// openApp connects the database and object store and builds the upload service.
// With migrate set, missing tables are created before the schema is validated.
func openApp(ctx context.Context, cfg *config.Config, migrate bool) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.db.Close() })

	if err = a.db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = a.db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = a.db.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate database schema: %w", err)
	}
	slog.Debug("connected to database", "type", cfg.Database.Type)

	a.store, err = a.openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a.service, err = fileloader.NewUploadService(a.db.GetRepo(), a.store, fileloader.ServiceConfig{
		CleanupTimeout: cfg.Service.CleanupTimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg config.StorageConfig) (fileloader.ObjectStore, error) {
	switch cfg.Backend {
	case config.BackendS3:
		store, err := s3.New(ctx, cfg.S3.StoreConfig())
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		slog.Debug("using s3 object store", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
		return store, nil

	case config.BackendFilesystem:
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open storage root: %w", err)
		}
		a.closers = append(a.closers, func() { _ = root.Close() })

		slog.Debug("using filesystem object store", "path", cfg.Path)
		return filesystem.NewFileStorage(root, cfg.BaseURL), nil

	default:
		return nil, errors.New("unsupported storage backend: " + cfg.Backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
