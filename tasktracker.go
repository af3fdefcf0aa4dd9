package tasktracker

import (
	"errors"
	"log/slog"

	"github.com/reminia/task-tracker/internal/config"
	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/linear"
	"github.com/reminia/task-tracker/internal/server"
	"github.com/reminia/task-tracker/internal/telemetry"
	"github.com/reminia/task-tracker/internal/trackingtime"
)

// ErrMissingAPIKey indicates an upstream credential was not configured.
var ErrMissingAPIKey = errors.New("missing API key")

// Config represents the configuration for the TaskTracker service.
type Config = config.Config

// Server represents the TaskTracker service.
type Server struct {
	config     *config.Config
	linear     linear.API
	tracking   trackingtime.API
	metrics    *telemetry.Collector
	toolServer server.ToolServer
	logger     *slog.Logger // Logger for this Server instance
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new TaskTracker Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
// If opts.Logger is nil, slog.Default() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration for server initialization")
		cfg = DefaultConfig()
	}

	metrics := telemetry.NewCollector()
	linearClient, trackingClient, err := CreateComponents(cfg, logger, metrics)
	if err != nil {
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}

	logger.Info("Initializing task tool server component")
	mcpServer := server.NewTaskToolServer(linearClient, trackingClient, cfg.Linear.Team, metrics)
	err = mcpServer.Initialize()
	if err != nil {
		logger.Error("Failed to initialize MCP task tool server component", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP task tool server component")
	}

	logger.Info("TaskTracker server successfully initialized")
	return &Server{
		config:     cfg,
		linear:     linearClient,
		tracking:   trackingClient,
		metrics:    metrics,
		toolServer: mcpServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the TaskTracker service.
func DefaultConfig() *Config {
	config := &Config{}
	config.Linear.Endpoint = linear.DefaultEndpoint
	config.TrackingTime.BaseURL = trackingtime.DefaultBaseURL
	config.Logging.Level = "info"
	config.Logging.Format = "text"
	return config
}

// Start starts the TaskTracker service. It blocks serving MCP requests on
// stdio until the client closes the transport.
func (s *Server) Start() error {
	s.logger.Info("Starting TaskTracker service")
	return s.toolServer.Start()
}

// Stop stops the TaskTracker service.
func (s *Server) Stop() error {
	s.logger.Info("Stopping TaskTracker service")
	err := s.toolServer.Stop()
	if err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}

	s.logger.Info("TaskTracker service stopped")
	return nil
}

// GetLinearClient returns the Linear client instance used by the server.
func (s *Server) GetLinearClient() linear.API {
	return s.linear
}

// GetTrackingTimeClient returns the TrackingTime client instance used by the server.
func (s *Server) GetTrackingTimeClient() trackingtime.API {
	return s.tracking
}

// GetMetrics returns the metrics collector shared by the server and clients.
func (s *Server) GetMetrics() *telemetry.Collector {
	return s.metrics
}

// CreateComponents creates the upstream API clients of the TaskTracker
// service without creating a server instance. This is useful for embedders
// that need direct access to the Linear and TrackingTime clients.
func CreateComponents(cfg *Config, logger *slog.Logger, metrics *telemetry.Collector) (linear.API, trackingtime.API, error) {
	if logger == nil {
		logger = slog.Default()
		logger.Debug("CreateComponents called with nil logger, defaulting to slog.Default()")
	}

	if cfg.Linear.APIKey == "" {
		return nil, nil, errortypes.ConfigError(ErrMissingAPIKey, "Linear API key is not configured")
	}
	if cfg.TrackingTime.APIKey == "" {
		return nil, nil, errortypes.ConfigError(ErrMissingAPIKey, "TrackingTime API key is not configured")
	}

	logger.Info("Initializing Linear client", "endpoint", cfg.Linear.Endpoint)
	linearClient := linear.NewClient(linear.Config{
		APIKey:   cfg.Linear.APIKey,
		Endpoint: cfg.Linear.Endpoint,
		Metrics:  metrics,
	})

	logger.Info("Initializing TrackingTime client", "base_url", cfg.TrackingTime.BaseURL)
	trackingClient := trackingtime.NewClient(trackingtime.Config{
		APIKey:  cfg.TrackingTime.APIKey,
		BaseURL: cfg.TrackingTime.BaseURL,
		Metrics: metrics,
	})

	logger.Info("Components successfully initialized via CreateComponents")
	return linearClient, trackingClient, nil
}
