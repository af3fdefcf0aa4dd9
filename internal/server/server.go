// Package server provides the MCP server implementation for the task-tracker service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/localrivet/gomcp/server"
	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/linear"
	"github.com/reminia/task-tracker/internal/telemetry"
	"github.com/reminia/task-tracker/internal/tools"
	"github.com/reminia/task-tracker/internal/trackingtime"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// TaskToolServer implements the ToolServer interface, dispatching MCP tool
// calls to the Linear and TrackingTime clients. Each invocation is
// independent: the server validates arguments, performs exactly one client
// operation, and wraps the result or error in the protocol envelope.
type TaskToolServer struct {
	linear   linear.API
	tracking trackingtime.API
	metrics  *telemetry.Collector

	// The default team for create_task/list_projects, set via config or
	// the set_team tool. Guarded because gomcp may run handlers
	// concurrently; this is the only mutable state the server holds.
	mu              sync.RWMutex
	defaultTeamName string
	defaultTeamID   string

	mcpServer server.Server
}

// NewTaskToolServer creates a new TaskToolServer instance. defaultTeam is
// the configured team name, resolved lazily on first use; it may be empty.
// metrics may be shared with the clients; a fresh collector is used when nil.
func NewTaskToolServer(linearClient linear.API, trackingClient trackingtime.API, defaultTeam string, metrics *telemetry.Collector) *TaskToolServer {
	if metrics == nil {
		metrics = telemetry.NewCollector()
	}
	return &TaskToolServer{
		linear:          linearClient,
		tracking:        trackingClient,
		metrics:         metrics,
		defaultTeamName: defaultTeam,
	}
}

// Metrics exposes the server's metrics collector.
func (s *TaskToolServer) Metrics() *telemetry.Collector {
	return s.metrics
}

// Initialize initializes the server with dependencies and configurations.
func (s *TaskToolServer) Initialize() error {
	slog.Info("Initializing task-tracker MCP server")

	if s.linear == nil || s.tracking == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	// Create the MCP server
	srv := server.NewServer("task-tracker")

	// Linear tools
	srv = srv.Tool(tools.ToolCreateTask, "Create a new task in Linear",
		s.handleCreateTask)
	srv = srv.Tool(tools.ToolListTasksByStatus, "List Linear tasks filtered by status (backlog, todo, in-progress, done, canceled, duplicate)",
		s.handleListTasksByStatus)
	srv = srv.Tool(tools.ToolSearchTasks, "Search Linear tasks by title",
		s.handleSearchTasks)
	srv = srv.Tool(tools.ToolUpdateTaskStatus, "Update a Linear task's status",
		s.handleUpdateTaskStatus)
	srv = srv.Tool(tools.ToolSetTeam, "Set the current Linear team by name",
		s.handleSetTeam)
	srv = srv.Tool(tools.ToolListTeams, "List all Linear teams",
		s.handleListTeams)
	srv = srv.Tool(tools.ToolListProjects, "List the projects of a Linear team",
		s.handleListProjects)

	// TrackingTime tools
	srv = srv.Tool(tools.ToolStartTracking, "Start time tracking for a task",
		s.handleStartTracking)
	srv = srv.Tool(tools.ToolStopTracking, "Stop the current time tracking",
		s.handleStopTracking)
	srv = srv.Tool(tools.ToolGetActiveTracking, "Get the currently active tracking entry",
		s.handleGetActiveTracking)
	srv = srv.Tool(tools.ToolAddTrackingNote, "Add a note to a tracking entry",
		s.handleAddTrackingNote)

	s.mcpServer = srv
	slog.Info("task-tracker MCP server initialized successfully", "tool_count", 11)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *TaskToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting task-tracker MCP server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *TaskToolServer) Stop() error {
	slog.Info("Stopping task-tracker MCP server", "metrics", s.metrics.Snapshot())
	// The server exits when stdin is closed
	return nil
}

// invoked counts a tool invocation.
func (s *TaskToolServer) invoked(tool string) {
	s.metrics.IncrementCounter(telemetry.MetricToolCalls, 1)
	s.metrics.IncrementCounter(telemetry.MetricToolCalls+"."+tool, 1)
}

// fail counts and converts a tool error into an envelope.
func (s *TaskToolServer) fail(err error) tools.Envelope {
	s.metrics.IncrementCounter(telemetry.MetricToolErrors, 1)
	if errortypes.IsValidationError(err) {
		s.metrics.IncrementCounter(telemetry.MetricValidationFailures, 1)
	}
	return failure(err)
}

// currentTeamID returns the default team id, resolving the configured team
// name via the Linear API on first use.
func (s *TaskToolServer) currentTeamID(ctx context.Context) (string, error) {
	s.mu.RLock()
	id, name := s.defaultTeamID, s.defaultTeamName
	s.mu.RUnlock()

	if id != "" {
		return id, nil
	}
	if name == "" {
		return "", errortypes.ValidationError(
			errors.New("no team selected"),
			"team_id is required; set one with set_team or configure a default team")
	}

	team, err := s.findTeamByName(ctx, name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.defaultTeamID = team.ID
	s.defaultTeamName = team.Name
	s.mu.Unlock()
	return team.ID, nil
}

// findTeamByName resolves a team name case-insensitively against ListTeams.
func (s *TaskToolServer) findTeamByName(ctx context.Context, name string) (*linear.Team, error) {
	teams, err := s.linear.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if strings.EqualFold(teams[i].Name, name) || strings.EqualFold(teams[i].Key, name) {
			return &teams[i], nil
		}
	}
	return nil, errortypes.NotFoundError(
		fmt.Errorf("no team named %q", name),
		"team not found").
		WithField("team_name", name)
}

// handleCreateTask handles the create_task MCP tool call.
func (s *TaskToolServer) handleCreateTask(mcpCtx *server.Context, req tools.CreateTaskRequest) (tools.CreateTaskResponse, error) {
	slog.Info("Processing create_task request", "title", req.Title)
	s.invoked(tools.ToolCreateTask)
	ctx := context.Background()

	response := tools.CreateTaskResponse{Envelope: tools.OK()}

	if req.Title == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("title is required"), "invalid create_task request"))
		return response, nil
	}

	var status linear.Status
	if req.Status != "" {
		parsed, err := linear.ParseStatus(req.Status)
		if err != nil {
			response.Envelope = s.fail(err)
			return response, nil
		}
		status = parsed
	}

	teamID := req.TeamID
	if teamID == "" {
		resolved, err := s.currentTeamID(ctx)
		if err != nil {
			response.Envelope = s.fail(err)
			return response, nil
		}
		teamID = resolved
	}

	issue, err := s.linear.CreateIssue(ctx, linear.CreateIssueInput{
		Title:       req.Title,
		TeamID:      teamID,
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Status:      status,
	})
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Task = issue
	slog.Info("Successfully created task", "id", issue.ID, "identifier", issue.Identifier)
	return response, nil
}

// handleListTasksByStatus handles the list_tasks_by_status MCP tool call.
func (s *TaskToolServer) handleListTasksByStatus(mcpCtx *server.Context, req tools.ListTasksByStatusRequest) (tools.ListTasksByStatusResponse, error) {
	slog.Info("Processing list_tasks_by_status request", "status", req.Status)
	s.invoked(tools.ToolListTasksByStatus)
	ctx := context.Background()

	response := tools.ListTasksByStatusResponse{Envelope: tools.OK(), Tasks: []linear.Issue{}}

	if req.Status == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("status is required"), "invalid list_tasks_by_status request"))
		return response, nil
	}
	status, err := linear.ParseStatus(req.Status)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	issues, err := s.linear.ListIssuesByStatus(ctx, status)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Tasks = issues
	slog.Info("Successfully listed tasks", "status", string(status), "count", len(issues))
	return response, nil
}

// handleSearchTasks handles the search_tasks MCP tool call.
func (s *TaskToolServer) handleSearchTasks(mcpCtx *server.Context, req tools.SearchTasksRequest) (tools.SearchTasksResponse, error) {
	slog.Info("Processing search_tasks request", "query", req.Query)
	s.invoked(tools.ToolSearchTasks)
	ctx := context.Background()

	response := tools.SearchTasksResponse{Envelope: tools.OK(), Tasks: []linear.Issue{}}

	if req.Query == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("query is required"), "invalid search_tasks request"))
		return response, nil
	}

	issues, err := s.linear.SearchIssuesByTitle(ctx, req.Query)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Tasks = issues
	slog.Info("Successfully searched tasks", "query", req.Query, "count", len(issues))
	return response, nil
}

// handleUpdateTaskStatus handles the update_task_status MCP tool call.
func (s *TaskToolServer) handleUpdateTaskStatus(mcpCtx *server.Context, req tools.UpdateTaskStatusRequest) (tools.UpdateTaskStatusResponse, error) {
	slog.Info("Processing update_task_status request", "task_id", req.TaskID, "status", req.Status)
	s.invoked(tools.ToolUpdateTaskStatus)
	ctx := context.Background()

	response := tools.UpdateTaskStatusResponse{Envelope: tools.OK()}

	if req.TaskID == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("task_id is required"), "invalid update_task_status request"))
		return response, nil
	}
	status, err := linear.ParseStatus(req.Status)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	issue, err := s.linear.UpdateIssueStatus(ctx, req.TaskID, status)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Task = issue
	slog.Info("Successfully updated task status", "id", issue.ID, "status", string(issue.Status))
	return response, nil
}

// handleSetTeam handles the set_team MCP tool call.
func (s *TaskToolServer) handleSetTeam(mcpCtx *server.Context, req tools.SetTeamRequest) (tools.SetTeamResponse, error) {
	slog.Info("Processing set_team request", "team_name", req.TeamName)
	s.invoked(tools.ToolSetTeam)
	ctx := context.Background()

	response := tools.SetTeamResponse{Envelope: tools.OK()}

	if req.TeamName == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("team_name is required"), "invalid set_team request"))
		return response, nil
	}

	team, err := s.findTeamByName(ctx, req.TeamName)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	s.mu.Lock()
	s.defaultTeamID = team.ID
	s.defaultTeamName = team.Name
	s.mu.Unlock()

	response.TeamID = team.ID
	response.TeamName = team.Name
	slog.Info("Successfully set current team", "team_id", team.ID, "team_name", team.Name)
	return response, nil
}

// handleListTeams handles the list_teams MCP tool call.
func (s *TaskToolServer) handleListTeams(mcpCtx *server.Context, req tools.ListTeamsRequest) (tools.ListTeamsResponse, error) {
	slog.Info("Processing list_teams request")
	s.invoked(tools.ToolListTeams)
	ctx := context.Background()

	response := tools.ListTeamsResponse{Envelope: tools.OK(), Teams: []linear.Team{}}

	teams, err := s.linear.ListTeams(ctx)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Teams = teams
	slog.Info("Successfully listed teams", "count", len(teams))
	return response, nil
}

// handleListProjects handles the list_projects MCP tool call.
func (s *TaskToolServer) handleListProjects(mcpCtx *server.Context, req tools.ListProjectsRequest) (tools.ListProjectsResponse, error) {
	slog.Info("Processing list_projects request", "team_id", req.TeamID)
	s.invoked(tools.ToolListProjects)
	ctx := context.Background()

	response := tools.ListProjectsResponse{Envelope: tools.OK(), Projects: []linear.Project{}}

	teamID := req.TeamID
	if teamID == "" {
		resolved, err := s.currentTeamID(ctx)
		if err != nil {
			response.Envelope = s.fail(err)
			return response, nil
		}
		teamID = resolved
	}

	projects, err := s.linear.ListProjects(ctx, teamID)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Projects = projects
	slog.Info("Successfully listed projects", "team_id", teamID, "count", len(projects))
	return response, nil
}

// handleStartTracking handles the start_tracking MCP tool call.
func (s *TaskToolServer) handleStartTracking(mcpCtx *server.Context, req tools.StartTrackingRequest) (tools.StartTrackingResponse, error) {
	slog.Info("Processing start_tracking request", "task", req.Task)
	s.invoked(tools.ToolStartTracking)
	ctx := context.Background()

	response := tools.StartTrackingResponse{Envelope: tools.OK()}

	if req.Task == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("task is required"), "invalid start_tracking request"))
		return response, nil
	}

	entry, err := s.tracking.StartTracking(ctx, trackingtime.StartInput{
		Task:    req.Task,
		Project: req.Project,
		Note:    req.Note,
	})
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Entry = entry
	slog.Info("Successfully started tracking", "entry_id", entry.ID, "task", entry.Task)
	return response, nil
}

// handleStopTracking handles the stop_tracking MCP tool call. Stopping with
// no active entry is a no-op result, not an error.
func (s *TaskToolServer) handleStopTracking(mcpCtx *server.Context, req tools.StopTrackingRequest) (tools.StopTrackingResponse, error) {
	slog.Info("Processing stop_tracking request")
	s.invoked(tools.ToolStopTracking)
	ctx := context.Background()

	response := tools.StopTrackingResponse{Envelope: tools.OK()}

	result, err := s.tracking.StopTracking(ctx)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Stopped = result.Stopped
	response.Entry = result.Entry
	if result.Stopped {
		slog.Info("Successfully stopped tracking", "entry_id", result.Entry.ID)
	} else {
		slog.Info("No active tracking entry to stop")
	}
	return response, nil
}

// handleGetActiveTracking handles the get_active_tracking MCP tool call.
func (s *TaskToolServer) handleGetActiveTracking(mcpCtx *server.Context, req tools.GetActiveTrackingRequest) (tools.GetActiveTrackingResponse, error) {
	slog.Info("Processing get_active_tracking request")
	s.invoked(tools.ToolGetActiveTracking)
	ctx := context.Background()

	response := tools.GetActiveTrackingResponse{Envelope: tools.OK()}

	entry, err := s.tracking.GetActiveEntry(ctx)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Active = entry != nil
	response.Entry = entry
	slog.Info("Successfully queried active tracking", "active", response.Active)
	return response, nil
}

// handleAddTrackingNote handles the add_tracking_note MCP tool call.
func (s *TaskToolServer) handleAddTrackingNote(mcpCtx *server.Context, req tools.AddTrackingNoteRequest) (tools.AddTrackingNoteResponse, error) {
	slog.Info("Processing add_tracking_note request", "entry_id", req.EntryID)
	s.invoked(tools.ToolAddTrackingNote)
	ctx := context.Background()

	response := tools.AddTrackingNoteResponse{Envelope: tools.OK()}

	if req.EntryID == 0 {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("entry_id is required"), "invalid add_tracking_note request"))
		return response, nil
	}
	if req.Note == "" {
		response.Envelope = s.fail(errortypes.ValidationError(
			errors.New("note is required"), "invalid add_tracking_note request"))
		return response, nil
	}

	entry, err := s.tracking.AddNote(ctx, req.EntryID, req.Note)
	if err != nil {
		response.Envelope = s.fail(err)
		return response, nil
	}

	response.Entry = entry
	slog.Info("Successfully added tracking note", "entry_id", entry.ID)
	return response, nil
}
