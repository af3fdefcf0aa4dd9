// Package tools defines the tool names and request/response schemas
// for the task-tracker MCP surface.
package tools

import (
	"github.com/reminia/task-tracker/internal/linear"
	"github.com/reminia/task-tracker/internal/trackingtime"
)

const (
	// ToolCreateTask is the name of the create_task MCP tool
	ToolCreateTask = "create_task"

	// ToolListTasksByStatus is the name of the list_tasks_by_status MCP tool
	ToolListTasksByStatus = "list_tasks_by_status"

	// ToolSearchTasks is the name of the search_tasks MCP tool
	ToolSearchTasks = "search_tasks"

	// ToolUpdateTaskStatus is the name of the update_task_status MCP tool
	ToolUpdateTaskStatus = "update_task_status"

	// ToolSetTeam is the name of the set_team MCP tool
	ToolSetTeam = "set_team"

	// ToolListTeams is the name of the list_teams MCP tool
	ToolListTeams = "list_teams"

	// ToolListProjects is the name of the list_projects MCP tool
	ToolListProjects = "list_projects"

	// ToolStartTracking is the name of the start_tracking MCP tool
	ToolStartTracking = "start_tracking"

	// ToolStopTracking is the name of the stop_tracking MCP tool
	ToolStopTracking = "stop_tracking"

	// ToolGetActiveTracking is the name of the get_active_tracking MCP tool
	ToolGetActiveTracking = "get_active_tracking"

	// ToolAddTrackingNote is the name of the add_tracking_note MCP tool
	ToolAddTrackingNote = "add_tracking_note"
)

// Envelope is the common response wrapper for every tool. Status is
// "success" or "error"; Code carries the error classification when
// Status is "error".
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK returns a success envelope.
func OK() Envelope {
	return Envelope{Status: "success"}
}

// CreateTaskRequest defines the input schema for create_task
type CreateTaskRequest struct {
	// Title is the title of the task
	Title string `json:"title"`

	// Description optionally describes the task
	Description string `json:"description,omitempty"`

	// TeamID optionally overrides the team set via set_team or config
	TeamID string `json:"team_id,omitempty"`

	// ProjectID optionally scopes the task to a project
	ProjectID string `json:"project_id,omitempty"`

	// Status is the optional initial status; one of backlog, todo,
	// in-progress, done, canceled, duplicate
	Status string `json:"status,omitempty"`
}

// CreateTaskResponse defines the output schema for create_task
type CreateTaskResponse struct {
	Envelope
	Task *linear.Issue `json:"task,omitempty"`
}

// ListTasksByStatusRequest defines the input schema for list_tasks_by_status
type ListTasksByStatusRequest struct {
	// Status is the status to filter by
	Status string `json:"status"`
}

// ListTasksByStatusResponse defines the output schema for list_tasks_by_status
type ListTasksByStatusResponse struct {
	Envelope
	Tasks []linear.Issue `json:"tasks"`
}

// SearchTasksRequest defines the input schema for search_tasks
type SearchTasksRequest struct {
	// Query is the text to search for in task titles
	Query string `json:"query"`
}

// SearchTasksResponse defines the output schema for search_tasks
type SearchTasksResponse struct {
	Envelope
	Tasks []linear.Issue `json:"tasks"`
}

// UpdateTaskStatusRequest defines the input schema for update_task_status
type UpdateTaskStatusRequest struct {
	// TaskID is the id of the task to update
	TaskID string `json:"task_id"`

	// Status is the new status for the task
	Status string `json:"status"`
}

// UpdateTaskStatusResponse defines the output schema for update_task_status
type UpdateTaskStatusResponse struct {
	Envelope
	Task *linear.Issue `json:"task,omitempty"`
}

// SetTeamRequest defines the input schema for set_team
type SetTeamRequest struct {
	// TeamName is the team name to select as the default for
	// subsequent create_task calls
	TeamName string `json:"team_name"`
}

// SetTeamResponse defines the output schema for set_team
type SetTeamResponse struct {
	Envelope
	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
}

// ListTeamsRequest defines the input schema for list_teams
type ListTeamsRequest struct{}

// ListTeamsResponse defines the output schema for list_teams
type ListTeamsResponse struct {
	Envelope
	Teams []linear.Team `json:"teams"`
}

// ListProjectsRequest defines the input schema for list_projects
type ListProjectsRequest struct {
	// TeamID optionally overrides the team set via set_team or config
	TeamID string `json:"team_id,omitempty"`
}

// ListProjectsResponse defines the output schema for list_projects
type ListProjectsResponse struct {
	Envelope
	Projects []linear.Project `json:"projects"`
}

// StartTrackingRequest defines the input schema for start_tracking
type StartTrackingRequest struct {
	// Task is the task name to track, typically "<identifier> <title>"
	Task string `json:"task"`

	// Project optionally names the TrackingTime project
	Project string `json:"project,omitempty"`

	// Note optionally attaches an initial note to the entry
	Note string `json:"note,omitempty"`
}

// StartTrackingResponse defines the output schema for start_tracking
type StartTrackingResponse struct {
	Envelope
	Entry *trackingtime.Entry `json:"entry,omitempty"`
}

// StopTrackingRequest defines the input schema for stop_tracking
type StopTrackingRequest struct{}

// StopTrackingResponse defines the output schema for stop_tracking.
// Stopped is false when no entry was active; that is a no-op, not an error.
type StopTrackingResponse struct {
	Envelope
	Stopped bool                `json:"stopped"`
	Entry   *trackingtime.Entry `json:"entry,omitempty"`
}

// GetActiveTrackingRequest defines the input schema for get_active_tracking
type GetActiveTrackingRequest struct{}

// GetActiveTrackingResponse defines the output schema for get_active_tracking
type GetActiveTrackingResponse struct {
	Envelope
	Active bool                `json:"active"`
	Entry  *trackingtime.Entry `json:"entry,omitempty"`
}

// AddTrackingNoteRequest defines the input schema for add_tracking_note
type AddTrackingNoteRequest struct {
	// EntryID is the id of the tracking entry to annotate
	EntryID int64 `json:"entry_id"`

	// Note is the text to attach to the entry
	Note string `json:"note"`
}

// AddTrackingNoteResponse defines the output schema for add_tracking_note
type AddTrackingNoteResponse struct {
	Envelope
	Entry *trackingtime.Entry `json:"entry,omitempty"`
}
