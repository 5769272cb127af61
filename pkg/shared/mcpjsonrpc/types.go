package mcpjsonrpc

import "encoding/json"

// Based on JSON-RPC 2.0 Specification: https://www.jsonrpc.org/specification

// Request represents a JSON-RPC request object.
// The ID is kept raw so it can be echoed back byte-for-byte in the response;
// clients correlate responses by ID and re-encoding (string vs number) would
// break that.
type Request struct {
	Version string          `json:"jsonrpc"`          // MUST be "2.0"
	Method  string          `json:"method"`           // Method to be invoked
	Params  json.RawMessage `json:"params,omitempty"` // Parameters (structured value)
	ID      json.RawMessage `json:"id,omitempty"`     // Request identifier (string, number, or null)
}

// IsNotification reports whether the request is a JSON-RPC notification.
// A request with an absent or null id is a notification and MUST NOT receive
// a response body, regardless of method name.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response represents a JSON-RPC response object.
type Response struct {
	Version string          `json:"jsonrpc"`          // MUST be "2.0"
	Result  interface{}     `json:"result,omitempty"` // Required on success
	Error   *Error          `json:"error,omitempty"`  // Required on error
	ID      json.RawMessage `json:"id"`               // Must match request ID
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`           // Error code
	Message string      `json:"message"`        // Error message
	Data    interface{} `json:"data,omitempty"` // Additional data about the error
}

// Error codes (subset, based on JSON-RPC spec and application errors)
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// -32000 to -32099: Server error (implementation-defined)
	CodeServerErrorToolNotFound = -32000
)

// NewResult builds a success response echoing the given request id.
func NewResult(id json.RawMessage, result interface{}) Response {
	return Response{Version: "2.0", Result: result, ID: id}
}

// NewError builds an error response echoing the given request id.
func NewError(id json.RawMessage, code int, message string) Response {
	return Response{Version: "2.0", Error: &Error{Code: code, Message: message}, ID: id}
}
