package linear

import (
	"testing"

	"github.com/reminia/task-tracker/internal/errortypes"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		input string
		want  Status
	}{
		{"backlog", StatusBacklog},
		{"todo", StatusTodo},
		{"in-progress", StatusInProgress},
		{"done", StatusDone},
		{"canceled", StatusCanceled},
		{"duplicate", StatusDuplicate},
		// Aliases and case variants
		{"TODO", StatusTodo},
		{"In Progress", StatusInProgress},
		{"started", StatusInProgress},
		{"unstarted", StatusTodo},
		{"completed", StatusDone},
		{"cancelled", StatusCanceled},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseStatus(tc.input)
			if err != nil {
				t.Fatalf("ParseStatus(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseStatusUnknown(t *testing.T) {
	for _, input := range []string{"", "half-done", "donezo"} {
		_, err := ParseStatus(input)
		if err == nil {
			t.Errorf("Expected error for %q", input)
			continue
		}
		if !errortypes.IsValidationError(err) {
			t.Errorf("Expected validation error for %q, got %v", input, err)
		}
	}
}

func TestStatusFromState(t *testing.T) {
	testCases := []struct {
		stateType string
		stateName string
		want      Status
	}{
		{"backlog", "Backlog", StatusBacklog},
		{"unstarted", "Todo", StatusTodo},
		{"started", "In Progress", StatusInProgress},
		{"completed", "Done", StatusDone},
		{"canceled", "Canceled", StatusCanceled},
		// Duplicates share the canceled type and are told apart by name.
		{"canceled", "Duplicate", StatusDuplicate},
		{"canceled", "duplicate", StatusDuplicate},
	}

	for _, tc := range testCases {
		if got := statusFromState(tc.stateType, tc.stateName); got != tc.want {
			t.Errorf("statusFromState(%q, %q) = %q, want %q", tc.stateType, tc.stateName, got, tc.want)
		}
	}
}

func TestStatusStateType(t *testing.T) {
	if got := StatusDuplicate.stateType(); got != "canceled" {
		t.Errorf("Expected duplicate to map to the canceled state type, got %q", got)
	}
	if got := StatusInProgress.stateType(); got != "started" {
		t.Errorf("Expected in-progress to map to started, got %q", got)
	}
}
