// Package server provides the MCP server implementation for the task-tracker service.
package server

// ToolServer defines the interface for the MCP server that dispatches
// task and time-tracking tool calls from MCP clients.
type ToolServer interface {
	// Initialize initializes the server with dependencies and configurations.
	Initialize() error

	// Start starts the MCP server on the stdio transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
