package linear

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reminia/task-tracker/internal/errortypes"
)

// Status is the normalized issue status used across the tool surface.
// Linear itself models status as per-team workflow states; Status abstracts
// those into a fixed enumeration keyed by the state's type.
type Status string

// Normalized statuses
const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
	StatusDuplicate  Status = "duplicate"
)

// AllStatuses lists every accepted status value, in display order.
var AllStatuses = []Status{
	StatusBacklog,
	StatusTodo,
	StatusInProgress,
	StatusDone,
	StatusCanceled,
	StatusDuplicate,
}

// ErrUnknownStatus is returned by ParseStatus for values outside the enumeration.
var ErrUnknownStatus = errors.New("unknown status")

// ParseStatus validates and normalizes a status string. A few aliases used
// by Linear's own terminology are accepted (unstarted, started, completed).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backlog":
		return StatusBacklog, nil
	case "todo", "unstarted":
		return StatusTodo, nil
	case "in-progress", "in progress", "started":
		return StatusInProgress, nil
	case "done", "completed":
		return StatusDone, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	case "duplicate":
		return StatusDuplicate, nil
	}
	return "", errortypes.ValidationError(ErrUnknownStatus,
		fmt.Sprintf("status must be one of %v, got %q", AllStatuses, s))
}

// stateType maps a normalized status to the Linear workflow-state type
// used in GraphQL filters and state resolution.
func (s Status) stateType() string {
	switch s {
	case StatusBacklog:
		return "backlog"
	case StatusTodo:
		return "unstarted"
	case StatusInProgress:
		return "started"
	case StatusDone:
		return "completed"
	case StatusCanceled, StatusDuplicate:
		// Linear files duplicates under the canceled state type.
		return "canceled"
	}
	return ""
}

// statusFromState converts a Linear workflow state (type + name) back into
// the normalized enumeration.
func statusFromState(stateType, stateName string) Status {
	if strings.EqualFold(stateName, "duplicate") {
		return StatusDuplicate
	}
	switch stateType {
	case "backlog":
		return StatusBacklog
	case "unstarted":
		return StatusTodo
	case "started":
		return StatusInProgress
	case "completed":
		return StatusDone
	case "canceled":
		return StatusCanceled
	}
	return Status(stateType)
}

// Team is a Linear team reference. Read-only from this system's perspective.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// Project is a Linear project reference. Read-only from this system's perspective.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is the normalized task shape returned by every Linear operation.
type Issue struct {
	ID          string   `json:"id"`
	Identifier  string   `json:"identifier"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Project     *Project `json:"project,omitempty"`
	Team        *Team    `json:"team,omitempty"`
}

// CreateIssueInput holds the arguments for Client.CreateIssue.
type CreateIssueInput struct {
	Title       string
	TeamID      string
	ProjectID   string
	Description string
	// Status is the initial workflow state for the issue. Empty means the
	// team's default state (Linear picks it).
	Status Status
}
