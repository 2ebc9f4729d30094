package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version sent on every request.
const Version = "2.0"

// Standard and service-specific error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeAuthFailed             = -32001
	CodeRateLimitExceeded      = -32002
	CodePermissionDenied       = -32003
	CodeCameraNotFound         = -32004
	CodeRecordingInProgress    = -32005
	CodeMediaServerUnavailable = -32006
	CodeInsufficientStorage    = -32007
	CodeCapabilityUnsupported  = -32008
)

// Request is an outbound JSON-RPC request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

// Message is any inbound frame: a response (result or error) or a
// server-pushed notification (method, no id).
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsNotification reports whether the frame carries a method.
func (m *Message) IsNotification() bool {
	return m.Method != ""
}

// IsResponse reports whether the frame is a reply to a request.
func (m *Message) IsResponse() bool {
	return m.Method == "" && (m.Result != nil || m.Error != nil)
}

// RequestID returns the numeric id of a response. Servers that echo the id as
// a numeric string are accepted.
func (m *Message) RequestID() (int64, bool) {
	return parseID(m.ID)
}

func parseID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Error is a JSON-RPC error object. It is returned as-is from Call.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code int) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// CodeName returns a short name for a known error code.
func CodeName(code int) string {
	switch code {
	case CodeParseError:
		return "parse error"
	case CodeInvalidRequest:
		return "invalid request"
	case CodeMethodNotFound:
		return "method not found"
	case CodeInvalidParams:
		return "invalid params"
	case CodeInternalError:
		return "internal error"
	case CodeAuthFailed:
		return "authentication failed"
	case CodeRateLimitExceeded:
		return "rate limit exceeded"
	case CodePermissionDenied:
		return "insufficient permissions"
	case CodeCameraNotFound:
		return "camera not found"
	case CodeRecordingInProgress:
		return "recording in progress"
	case CodeMediaServerUnavailable:
		return "media server unavailable"
	case CodeInsufficientStorage:
		return "insufficient storage"
	case CodeCapabilityUnsupported:
		return "capability not supported"
	default:
		return "unknown error"
	}
}
