// Package config provides configuration loading and validation for the file loader.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILELOADER_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILELOADER_ prefix:
//   - server.port → FILELOADER_SERVER_PORT
//   - database.dsn → FILELOADER_DATABASE_DSN
//   - storage.s3.bucket → FILELOADER_STORAGE_S3_BUCKET
//
// # Validation
//
//   - Port must be 1-65535
//   - Database type must be sqlite or postgres
//   - Storage backend must be filesystem (requires path) or s3 (requires bucket)
//   - Log level must be debug, info, warn, or error
package config
