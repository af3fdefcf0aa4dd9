package errortypes

import (
	"errors"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	base := errors.New("connection refused")
	appErr := NetworkError(base, "error sending request")

	if !errors.Is(appErr, base) {
		t.Error("Expected errors.Is to find the wrapped error")
	}

	var unwrapped *AppError
	if !errors.As(appErr, &unwrapped) {
		t.Fatal("Expected errors.As to find AppError")
	}
	if unwrapped.Type != ErrorTypeNetwork {
		t.Errorf("Expected type '%s', got '%s'", ErrorTypeNetwork, unwrapped.Type)
	}
}

func TestErrorMessage(t *testing.T) {
	appErr := UpstreamError(errors.New("500 internal"), "Linear request failed")

	want := "Linear request failed: 500 internal"
	if appErr.Error() != want {
		t.Errorf("Expected '%s', got '%s'", want, appErr.Error())
	}
}

func TestWithField(t *testing.T) {
	appErr := NotFoundError(errors.New("missing"), "team not found").
		WithField("team_id", "team-1").
		WithFields(map[string]interface{}{"attempt": 2})

	if appErr.Fields["team_id"] != "team-1" {
		t.Errorf("Expected team_id field, got %v", appErr.Fields)
	}
	if appErr.Fields["attempt"] != 2 {
		t.Errorf("Expected attempt field, got %v", appErr.Fields)
	}
}

func TestTypeOf(t *testing.T) {
	base := errors.New("boom")

	testCases := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"Validation", ValidationError(base, "m"), ErrorTypeValidation},
		{"NotFound", NotFoundError(base, "m"), ErrorTypeNotFound},
		{"Conflict", ConflictError(base, "m"), ErrorTypeConflict},
		{"Upstream", UpstreamError(base, "m"), ErrorTypeUpstream},
		{"Network", NetworkError(base, "m"), ErrorTypeNetwork},
		{"Config", ConfigError(base, "m"), ErrorTypeConfig},
		{"Internal", InternalError(base, "m"), ErrorTypeInternal},
		{"Plain", base, ErrorType("")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TypeOf(tc.err); got != tc.want {
				t.Errorf("Expected '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	conflict := ConflictError(errors.New("busy"), "already tracking")

	if !IsConflictError(conflict) {
		t.Error("Expected IsConflictError to be true")
	}
	if IsValidationError(conflict) {
		t.Error("Expected IsValidationError to be false")
	}
	if IsConflictError(errors.New("plain")) {
		t.Error("Expected IsConflictError to be false for plain errors")
	}
}

func TestNilUnderlyingError(t *testing.T) {
	appErr := ConfigError(nil, "missing API key")
	if appErr.Err == nil {
		t.Fatal("Expected a substitute underlying error")
	}
	if appErr.Error() == "" {
		t.Error("Expected non-empty message")
	}
}
