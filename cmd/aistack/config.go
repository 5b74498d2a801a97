package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all CLI configuration.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Stack    StackConfig    `mapstructure:"stack"`
	Docker   DockerConfig   `mapstructure:"docker"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Log      LogConfig      `mapstructure:"log"`
}

// RegistryConfig holds image registry configuration.
type RegistryConfig struct {
	// Host is the registry host. Empty or "docker.io" means Docker Hub.
	Host string `mapstructure:"host"`

	// Username is the registry namespace images are tagged under.
	Username string `mapstructure:"username"`

	// Tag is the tag applied to built images.
	Tag string `mapstructure:"tag"`
}

// StackConfig holds stack layout configuration.
type StackConfig struct {
	// ComposeFile is the path to the stack manifest.
	ComposeFile string `mapstructure:"compose_file"`

	// Project is the name prefix for containers, networks and volumes.
	Project string `mapstructure:"project"`

	// DataDir is the root directory for model and output data.
	DataDir string `mapstructure:"data_dir"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// JournalConfig holds operation journal configuration.
type JournalConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("registry.host", "docker.io")
	v.SetDefault("registry.username", "")
	v.SetDefault("registry.tag", "latest")
	v.SetDefault("stack.compose_file", "./compose.yaml")
	v.SetDefault("stack.project", "aistack")
	v.SetDefault("stack.data_dir", "./data")
	v.SetDefault("docker.host", "")
	v.SetDefault("journal.dsn", "./data/aistack.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("AISTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. The CLI
// logs to stderr so command output and streamed container logs own stdout.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
