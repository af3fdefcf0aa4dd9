package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the task-tracker configuration
type Config struct {
	// Linear contains the project-tracking API configuration.
	Linear struct {
		// APIKey is a Linear personal API key.
		APIKey string `json:"api_key" env:"LINEAR_API_KEY" validate:"required"`

		// Team is the default team name for task creation. It can be
		// changed at runtime with the set_team tool.
		Team string `json:"team" env:"LINEAR_TEAM"`

		// Endpoint overrides the Linear GraphQL endpoint.
		Endpoint string `json:"endpoint" env:"LINEAR_ENDPOINT"`
	} `json:"linear"`

	// TrackingTime contains the time-tracking API configuration.
	TrackingTime struct {
		// APIKey is the TrackingTime API key, used as the basic-auth user.
		APIKey string `json:"api_key" env:"TRACKINGTIME_API_KEY" validate:"required"`

		// BaseURL overrides the TrackingTime API base URL.
		BaseURL string `json:"base_url" env:"TRACKINGTIME_BASE_URL"`
	} `json:"trackingtime"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".tasktrackerconfig"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	// EnvPrefix namespaces the environment variables read by the env
	// provider, e.g. TASKTRACKER_LINEAR_API_KEY.
	EnvPrefix = "TASKTRACKER"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path.
// Environment variables still apply when the file is absent, so a config
// file is optional.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Log to stderr during loading; stdout belongs to the MCP transport.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create default configuration
	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	// Create configurator instance. The file provider is only added when
	// the file exists; defaults and environment still apply without it.
	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		stdLogger.Info("Config file not found, relying on environment variables", "path", configPath)
	} else {
		stdLogger.Info("Loading configuration", "path", configPath)
		config = config.WithProvider(configurator.NewFileProvider(configPath))
	}
	config = config.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	// Load configuration
	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Store the config path for future operations
	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Save using configurator's SaveToFile function
	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Update internal state
	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
