package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"browsercov/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Coverage CoverageConfig
	Ingest   IngestConfig
	Log      LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	UIPort          string        `validate:"required,numeric"`
	APIPort         string        `validate:"required,numeric"`
	GinMode         string        `validate:"omitempty,oneof=debug release test"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// CoverageConfig holds selection defaults used when a request does not override them
type CoverageConfig struct {
	Threshold float64 `validate:"gte=0,lte=100"`
	Sort      string  `validate:"oneof=usage name"`
}

// IngestConfig holds analytics export parsing settings
type IngestConfig struct {
	RulesFile   string
	DataFile    string
	Columns     string `validate:"oneof=auto legacy ga4"`
	MaxUploadMB int    `validate:"gt=0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	File  string
}

// Defaults mirror what the web page starts with
const (
	DefaultThreshold = 95.0
	DefaultSort      = "usage"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Coverage: *loadCoverageConfig(),
		Ingest:   *loadIngestConfig(),
		Log:      *loadLogConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UIPort:          "8080",
			APIPort:         "8081",
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Coverage: CoverageConfig{Threshold: DefaultThreshold, Sort: DefaultSort},
		Ingest:   IngestConfig{Columns: "auto", MaxUploadMB: 10},
		Log:      LogConfig{Level: "INFO"},
	}
}

// MaxUploadBytes converts the upload limit to bytes
func (c IngestConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Validate checks struct constraints
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func loadServerConfig() *ServerConfig {
	def := Default().Server
	return &ServerConfig{
		UIPort:          getEnvOrDefault("UI_PORT", def.UIPort),
		APIPort:         getEnvOrDefault("API_PORT", def.APIPort),
		GinMode:         getEnvOrDefault("GIN_MODE", def.GinMode),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
	}
}

func loadCoverageConfig() *CoverageConfig {
	return &CoverageConfig{
		Threshold: getEnvFloatOrDefault("COVERAGE_THRESHOLD", DefaultThreshold),
		Sort:      getEnvOrDefault("COVERAGE_SORT", DefaultSort),
	}
}

func loadIngestConfig() *IngestConfig {
	return &IngestConfig{
		RulesFile:   getEnvOrDefault("RULES_FILE", ""),
		DataFile:    getEnvOrDefault("DATA_FILE", ""),
		Columns:     getEnvOrDefault("COLUMNS", "auto"),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 10),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
		File:  getEnvOrDefault("LOG_FILE", ""),
	}
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
