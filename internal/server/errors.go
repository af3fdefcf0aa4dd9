package server

import (
	"github.com/reminia/task-tracker/internal/errortypes"
	"github.com/reminia/task-tracker/internal/tools"
)

// Envelope error codes reported to the MCP caller.
const (
	StatusCodeValidationError = "VALIDATION_ERROR"
	StatusCodeNotFound        = "NOT_FOUND"
	StatusCodeConflict        = "CONFLICT"
	StatusCodeUpstreamError   = "UPSTREAM_ERROR"
	StatusCodeNetworkError    = "NETWORK_ERROR"
	StatusCodeConfigError     = "CONFIG_ERROR"
	StatusCodeInternalError   = "INTERNAL_ERROR"
	StatusCodeUnknownError    = "UNKNOWN_ERROR"
)

// codeFor maps an error to its envelope code.
func codeFor(err error) string {
	switch errortypes.TypeOf(err) {
	case errortypes.ErrorTypeValidation:
		return StatusCodeValidationError
	case errortypes.ErrorTypeNotFound:
		return StatusCodeNotFound
	case errortypes.ErrorTypeConflict:
		return StatusCodeConflict
	case errortypes.ErrorTypeUpstream:
		return StatusCodeUpstreamError
	case errortypes.ErrorTypeNetwork:
		return StatusCodeNetworkError
	case errortypes.ErrorTypeConfig:
		return StatusCodeConfigError
	case errortypes.ErrorTypeInternal:
		return StatusCodeInternalError
	}
	return StatusCodeUnknownError
}

// failure logs err and converts it into an error envelope. Every tool error
// is surfaced to the caller this way; none are fatal to the process.
func failure(err error) tools.Envelope {
	errortypes.LogError(nil, err)
	return tools.Envelope{
		Status: "error",
		Code:   codeFor(err),
		Error:  err.Error(),
	}
}
