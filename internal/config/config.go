package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read from app.env (if present) and overridden by environment variables.
type Config struct {
	ServerPort      string        `mapstructure:"SERVER_PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTExpiry       time.Duration `mapstructure:"JWT_EXPIRY"`
	ClientOrigin    string        `mapstructure:"CLIENT_ORIGIN"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MigrateOnStart  bool          `mapstructure:"MIGRATE_ON_START"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Storage
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	S3Bucket       string `mapstructure:"S3_BUCKET"`

	// AWS
	AWSRegion    string `mapstructure:"AWS_REGION"`
	SESFromEmail string `mapstructure:"SES_FROM_EMAIL"`
}

var defaults = map[string]any{
	"SERVER_PORT":      "8080",
	"DATABASE_URL":     "",
	"JWT_SECRET":       "",
	"JWT_EXPIRY":       "24h",
	"CLIENT_ORIGIN":    "http://localhost:5173",
	"LOG_LEVEL":        "info",
	"MIGRATE_ON_START": false,
	"BODY_LIMIT":       "100M",
	"SHUTDOWN_TIMEOUT": "10s",
	"STORAGE_BACKEND":  "local",
	"UPLOAD_DIR":       "uploads",
	"S3_BUCKET":        "",
	"AWS_REGION":       "ap-south-1",
	"SES_FROM_EMAIL":   "",
}

// LoadConfig reads configuration from path/app.env and the environment.
// A missing config file is not an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config.LoadConfig: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.StorageBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
