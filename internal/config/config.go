package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string        `mapstructure:"PORT"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
}

var defaults = map[string]any{
	"PORT":             "8080",
	"DATABASE_URL":     "",
	"JWT_SECRET":       "",
	"JWT_TTL":          "168h",
	"LOG_LEVEL":        "info",
	"REDIS_URL":        "",
	"KAFKA_BROKERS":    "",
	"KAFKA_TOPIC":      "tabletop.events",
	"MINIO_ENDPOINT":   "",
	"MINIO_ACCESS_KEY": "",
	"MINIO_SECRET_KEY": "",
	"MINIO_BUCKET":     "tabletop",
	"MINIO_USE_SSL":    false,
}

// LoadConfig loads the configuration from an optional .env file in the
// working directory and the environment. Environment variables win.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Info(".env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	return &cfg, nil
}

// Brokers splits KAFKA_BROKERS into addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
