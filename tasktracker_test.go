package tasktracker

import (
	"testing"

	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/linear"
	"github.com/reminia/task-tracker/internal/telemetry"
	"github.com/reminia/task-tracker/internal/trackingtime"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Linear.APIKey = "lin_api_test"
	cfg.TrackingTime.APIKey = "tt_test"
	cfg.Linear.Team = "Engineering"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Linear.Endpoint != linear.DefaultEndpoint {
		t.Errorf("Expected default Linear endpoint, got '%s'", cfg.Linear.Endpoint)
	}
	if cfg.TrackingTime.BaseURL != trackingtime.DefaultBaseURL {
		t.Errorf("Expected default TrackingTime base URL, got '%s'", cfg.TrackingTime.BaseURL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.Logging.Level)
	}
}

func TestCreateComponents(t *testing.T) {
	linearClient, trackingClient, err := CreateComponents(testConfig(), nil, telemetry.NewCollector())
	if err != nil {
		t.Fatalf("CreateComponents failed: %v", err)
	}
	if linearClient == nil || trackingClient == nil {
		t.Fatal("Expected both clients to be created")
	}
}

func TestCreateComponentsMissingKeys(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Missing Linear Key", func(c *Config) { c.Linear.APIKey = "" }},
		{"Missing TrackingTime Key", func(c *Config) { c.TrackingTime.APIKey = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)

			_, _, err := CreateComponents(cfg, nil, nil)
			if err == nil {
				t.Fatal("Expected error for missing API key")
			}
			if errortypes.TypeOf(err) != errortypes.ErrorTypeConfig {
				t.Errorf("Expected config error, got %v", err)
			}
		})
	}
}

func TestNewServerWithConfig(t *testing.T) {
	srv, err := NewServer(ServerOptions{Config: testConfig()})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if srv.GetLinearClient() == nil || srv.GetTrackingTimeClient() == nil {
		t.Error("Expected clients to be wired")
	}
	if srv.GetMetrics() == nil {
		t.Error("Expected a metrics collector")
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestNewServerMissingKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Linear.APIKey = ""

	if _, err := NewServer(ServerOptions{Config: cfg}); err == nil {
		t.Error("Expected error for unconfigured API key")
	}
}
