package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "fileloader",
	Short:   "Text file upload service",
	Long: `fileloader accepts small UTF-8 text files over HTTP, screens them for
embedded SQL and script content, stores the bytes in an object store and
keeps a record of each upload in SQLite or PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: FILELOADER_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: fileloader.db, env: FILELOADER_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-backend", "", "object store: filesystem, s3 (default: filesystem, env: FILELOADER_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (default: ./data, env: FILELOADER_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FILELOADER_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
