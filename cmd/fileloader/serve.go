package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/config"
	fileloaderhttp "github.com/abdoelhafi/file-loader-app/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the fileloader HTTP server.

Routes:
  POST   /api/files/       upload a .txt file (multipart field "file")
  GET    /api/files/       list uploads, newest first
  GET    /api/files/{id}   fetch one upload with its content
  DELETE /api/files/{id}   delete an upload and its stored object
  GET    /healthz          database health`,
	RunE: runServe,
}

var serveAutoMigrate bool

func init() {
	serveCmd.Flags().Int("port", 8000, "HTTP server port (env: FILELOADER_SERVER_PORT)")
	serveCmd.Flags().BoolVar(&serveAutoMigrate, "migrate", false, "create missing tables before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cfg, serveAutoMigrate)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := fileloaderhttp.NewHandler(&fileloaderhttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Health:        a.db,
	}, a.service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"database", cfg.Database.Type,
		"storage", cfg.Storage.Backend,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
