// Package a2a defines the JSON-RPC wire protocol spoken between agents:
// envelope types, method names, error codes and the payload shapes of the
// message/send and tasks/get operations.
package a2a

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// WellKnownPath is where an agent serves its card for discovery.
const WellKnownPath = "/.well-known/agent-card.json"

// ProtocolVersion is advertised in the agent card.
const ProtocolVersion = "1.0"

// Supported methods.
const (
	MethodMessageSend = "message/send"
	MethodTasksGet    = "tasks/get"
)

// Request is a generic JSON-RPC request. Params stays raw until the method
// is known; the server switches on Method and decodes accordingly.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a generic JSON-RPC response. Exactly one of Result and Error
// is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object. It satisfies the error interface so
// it can travel through normal Go error paths.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes, plus implementation-defined codes in the
// -32000..-32099 range.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeTaskNotFound   = -32001
)

func NewError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func NewParseError(data any) *Error {
	return NewError(CodeParseError, "invalid JSON payload", data)
}

func NewInvalidRequestError(data any) *Error {
	return NewError(CodeInvalidRequest, "request validation failed", data)
}

func NewMethodNotFoundError(method string) *Error {
	return NewError(CodeMethodNotFound, "method not found", map[string]string{"method": method})
}

func NewInvalidParamsError(data any) *Error {
	return NewError(CodeInvalidParams, "invalid parameters", data)
}

func NewInternalError(data any) *Error {
	return NewError(CodeInternalError, "internal error", data)
}

func NewTaskNotFoundError(taskID string) *Error {
	return NewError(CodeTaskNotFound, "task not found", map[string]string{"taskId": taskID})
}

// HTTPStatus maps a JSON-RPC error code to an HTTP status code.
func HTTPStatus(code int) int {
	switch code {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return http.StatusBadRequest
	case CodeMethodNotFound, CodeTaskNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
