package daemon

import (
	"fmt"

	"github.com/watchpost/watchpost/internal/monitor"
)

// JSON-RPC 2.0 method names.
const (
	MethodPing   = "ping"
	MethodStatus = "status"
	MethodFlush  = "flush"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Custom error codes for daemon-specific errors.
const (
	ErrCodeFlushFailed = -32001
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// FlushParams are the parameters for the flush method.
type FlushParams struct {
	// Directory is the watched directory to flush (required).
	Directory string `json:"directory"`
}

// Validate checks that required fields are present.
func (p *FlushParams) Validate() error {
	if p.Directory == "" {
		return fmt.Errorf("directory is required")
	}
	return nil
}

// StatusResult contains the running watch process's state.
type StatusResult struct {
	Running     bool                      `json:"running"`
	PID         int                       `json:"pid"`
	Uptime      string                    `json:"uptime"`
	Directories []monitor.DirectoryStatus `json:"directories"`
	Cooldowns   int                       `json:"cooldowns"`
}

// FlushResult is the response to a flush request.
type FlushResult struct {
	Flushed bool `json:"flushed"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}
