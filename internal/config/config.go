package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yukikurage/watchtower-api/internal/models"
)

type Config struct {
	DBDriver   string `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBPath     string `mapstructure:"db_path"`

	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	SessionSecret string `mapstructure:"session_secret"`

	GinMode  string `mapstructure:"gin_mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	BoardMode         string `mapstructure:"board_mode"`
	UndoWindowSeconds int    `mapstructure:"undo_window_seconds"`

	AMQPURL               string `mapstructure:"amqp_url"`
	APIRateLimitPerMinute int    `mapstructure:"api_rate_limit_per_minute"`
}

var defaults = map[string]any{
	"db_driver":                 "mysql",
	"db_host":                   "localhost",
	"db_port":                   "3306",
	"db_user":                   "watchtower",
	"db_password":               "watchtower",
	"db_name":                   "watchtower",
	"db_path":                   "watchtower.db",
	"redis_host":                "",
	"redis_port":                "6379",
	"session_secret":            "default-secret-key-change-me",
	"gin_mode":                  "debug",
	"http_addr":                 ":8080",
	"log_level":                 "info",
	"log_format":                "text",
	"board_mode":                string(models.BoardModeShift),
	"undo_window_seconds":       20,
	"amqp_url":                  "",
	"api_rate_limit_per_minute": 120,
}

// Load reads configuration from .env, the environment and an optional YAML
// file named by CONFIG_FILE. Environment variables win over the file.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}

	switch models.BoardMode(c.BoardMode) {
	case models.BoardModeShift, models.BoardModeBoard:
	default:
		return fmt.Errorf("unsupported board_mode %q", c.BoardMode)
	}

	if c.UndoWindowSeconds <= 0 {
		return fmt.Errorf("undo_window_seconds must be positive, got %d", c.UndoWindowSeconds)
	}

	return nil
}

// Mode returns the configured board mode.
func (c *Config) Mode() models.BoardMode {
	return models.BoardMode(c.BoardMode)
}

// UndoWindow returns the undo grace period.
func (c *Config) UndoWindow() time.Duration {
	return time.Duration(c.UndoWindowSeconds) * time.Second
}
