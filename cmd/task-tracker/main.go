package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	tasktracker "github.com/reminia/task-tracker"
	"github.com/reminia/task-tracker/internal/config"
	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "task-tracker",
	Short: "MCP server exposing Linear tasks and TrackingTime tracking as tools",
	Long: `task-tracker is an MCP server speaking over stdio. It exposes Linear
task management (create, list, search, status updates) and TrackingTime
time tracking (start, stop, notes) as callable tools.

Configuration comes from a JSON config file and TASKTRACKER_* environment
variables; at minimum the Linear and TrackingTime API keys must be set.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultConfigFilename, "Path to the configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithPath(configPath)
	if err != nil {
		return err
	}

	// Logging goes to stderr; stdout carries the MCP stdio transport.
	appLogger := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	appLogger.Info("task-tracker MCP server starting", "config", cfg.GetConfigPath())

	srv, err := tasktracker.NewServer(tasktracker.ServerOptions{
		Config: cfg,
		Logger: appLogger,
	})
	if err != nil {
		errortypes.LogError(appLogger, err)
		return err
	}

	setupSignalHandler(srv)

	// Blocks until the MCP client closes the transport.
	if err := srv.Start(); err != nil {
		errortypes.LogError(appLogger, err)
		return err
	}
	return srv.Stop()
}

// setupSignalHandler stops the server cleanly on SIGINT/SIGTERM.
func setupSignalHandler(srv *tasktracker.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		_ = srv.Stop()
		os.Exit(0)
	}()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
