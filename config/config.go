package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abdoelhafi/file-loader-app/database"
	fileloaderhttp "github.com/abdoelhafi/file-loader-app/http"
	"github.com/abdoelhafi/file-loader-app/s3"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Storage backends.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// Config is the root configuration struct for the file loader.
type Config struct {
	Server   ServerConfig              `mapstructure:"server"`
	Service  ServiceConfig             `mapstructure:"service"`
	Database database.Config           `mapstructure:"database"`
	Storage  StorageConfig             `mapstructure:"storage"`
	CORS     fileloaderhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig                 `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
	ReconcileGrace int `mapstructure:"reconcile_grace" validate:"min=0"`
}

// CleanupTimeoutDuration returns CleanupTimeout in seconds as a duration.
func (c ServiceConfig) CleanupTimeoutDuration() time.Duration {
	return time.Duration(c.CleanupTimeout) * time.Second
}

// ReconcileGraceDuration returns ReconcileGrace in seconds as a duration.
func (c ServiceConfig) ReconcileGraceDuration() time.Duration {
	return time.Duration(c.ReconcileGrace) * time.Second
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Backend string   `mapstructure:"backend" validate:"required,oneof=filesystem s3"`
	Path    string   `mapstructure:"path"`
	BaseURL string   `mapstructure:"base_url"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config holds S3 bucket and credential settings.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicURL       string `mapstructure:"public_url" validate:"omitempty,url"`
	CreateBucket    bool   `mapstructure:"create_bucket"`
}

// StoreConfig converts the section into the s3 package config.
func (c S3Config) StoreConfig() s3.Config {
	return s3.Config{
		Region:                 c.Region,
		Bucket:                 c.Bucket,
		AccessKeyID:            c.AccessKeyID,
		SecretAccessKey:        c.SecretAccessKey,
		Endpoint:               c.Endpoint,
		UsePathStyle:           c.UsePathStyle,
		PublicURL:              c.PublicURL,
		CreateBucketIfNotExist: c.CreateBucket,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Env   string `mapstructure:"env"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"port":            "server.port",
	"log-level":       "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_upload_size", 1<<20)

	v.SetDefault("service.cleanup_timeout", 30)   // seconds
	v.SetDefault("service.reconcile_grace", 3600) // seconds

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "fileloader.db")
	v.SetDefault("database.tables.uploads", "file_uploads")

	v.SetDefault("storage.backend", BackendFilesystem)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.s3.public_url", "")
	v.SetDefault("storage.s3.create_bucket", false)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "development")
}

// validateStorage enforces the fields each backend needs.
func validateStorage(sl validator.StructLevel) {
	sc, ok := sl.Current().Interface().(StorageConfig)
	if !ok {
		return
	}

	switch sc.Backend {
	case BackendS3:
		if sc.S3.Bucket == "" {
			sl.ReportError(sc.S3.Bucket, "S3.Bucket", "bucket", "required_with_s3", "")
		}
	case BackendFilesystem:
		if sc.Path == "" {
			sl.ReportError(sc.Path, "Path", "path", "required_with_filesystem", "")
		}
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// Every key has a default, so AutomaticEnv sees all of them.
	v.SetEnvPrefix("FILELOADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
