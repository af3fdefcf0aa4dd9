package server

import (
	"errors"
	"testing"

	"github.com/reminia/task-tracker/internal/errortypes"
)

func TestCodeFor(t *testing.T) {
	base := errors.New("boom")

	testCases := []struct {
		name string
		err  error
		code string
	}{
		{"Validation", errortypes.ValidationError(base, "bad input"), StatusCodeValidationError},
		{"NotFound", errortypes.NotFoundError(base, "missing"), StatusCodeNotFound},
		{"Conflict", errortypes.ConflictError(base, "busy"), StatusCodeConflict},
		{"Upstream", errortypes.UpstreamError(base, "api"), StatusCodeUpstreamError},
		{"Network", errortypes.NetworkError(base, "net"), StatusCodeNetworkError},
		{"Config", errortypes.ConfigError(base, "cfg"), StatusCodeConfigError},
		{"Internal", errortypes.InternalError(base, "oops"), StatusCodeInternalError},
		{"Plain", base, StatusCodeUnknownError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := codeFor(tc.err); got != tc.code {
				t.Errorf("Expected code '%s', got '%s'", tc.code, got)
			}
		})
	}
}

func TestFailureEnvelope(t *testing.T) {
	err := errortypes.ConflictError(errors.New("an entry is already being tracked"), "cannot start")

	env := failure(err)
	if env.Status != "error" {
		t.Errorf("Expected status 'error', got '%s'", env.Status)
	}
	if env.Code != StatusCodeConflict {
		t.Errorf("Expected code '%s', got '%s'", StatusCodeConflict, env.Code)
	}
	if env.Error == "" {
		t.Error("Expected non-empty error message")
	}
}
