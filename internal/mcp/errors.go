// Package mcp exposes answer_context over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// Custom MCP error codes for docqa.
const (
	// ErrCodeSnapshotNotFound indicates no snapshot has been built or loaded.
	ErrCodeSnapshotNotFound = -32001

	// ErrCodeSnapshotInvalid indicates a stale, mismatched or corrupt snapshot.
	ErrCodeSnapshotInvalid = -32002

	// ErrCodeBusy indicates the snapshot is locked by a rebuild.
	ErrCodeBusy = -32003

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors. Query failures stay
// distinct from an empty result, which is not an error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var qe *qaerrors.QAError
	if errors.As(err, &qe) {
		return mapQAError(qe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapQAError(qe *qaerrors.QAError) *MCPError {
	message := qe.Message
	if qe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", qe.Message, qe.Suggestion)
	}

	switch qe.Code {
	case qaerrors.ErrCodeSnapshotNotFound:
		return &MCPError{Code: ErrCodeSnapshotNotFound, Message: message}
	case qaerrors.ErrCodeDimensionMismatch,
		qaerrors.ErrCodeInconsistentSnapshot,
		qaerrors.ErrCodeUnsupportedSnapshot,
		qaerrors.ErrCodeSnapshotCorrupt:
		return &MCPError{Code: ErrCodeSnapshotInvalid, Message: message}
	case qaerrors.ErrCodeSnapshotLocked:
		return &MCPError{Code: ErrCodeBusy, Message: message}
	}

	if qe.Category == qaerrors.CategoryValidation {
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	}
	return &MCPError{Code: ErrCodeInternalError, Message: message}
}
