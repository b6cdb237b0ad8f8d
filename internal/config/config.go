package config

import (
	"os"
	"strconv"

	"patientcluster/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Export   ExportConfig
	Upload   UploadConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig holds web UI server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// APIConfig holds JSON API server settings
type APIConfig struct {
	Port string
}

// ExportConfig holds output artifact settings
type ExportConfig struct {
	SnapshotPath string
}

// UploadConfig bounds accepted uploads
type UploadConfig struct {
	MaxMB int
}

// MaxBytes returns the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return int64(u.MaxMB) * 1024 * 1024
}

// DatabaseConfig holds the optional run-history database connection.
// An empty URL disables run history.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a run-history database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LoggingConfig selects the log encoder
type LoggingConfig struct {
	JSON bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		API: APIConfig{
			Port: getEnvOrDefault("API_PORT", "8081"),
		},
		Export: ExportConfig{
			SnapshotPath: getEnvOrDefault("SNAPSHOT_PATH", "clustered_patients.gob"),
		},
		Upload: UploadConfig{
			MaxMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Logging: LoggingConfig{
			JSON: getEnvBoolOrDefault("LOG_JSON", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if config.Export.SnapshotPath == "" {
		return errors.ConfigInvalid("SNAPSHOT_PATH must not be empty")
	}
	if config.Upload.MaxMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be one of debug, release, test")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
