package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes. ErrApplication is the server-defined code for domain errors.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	ErrApplication    = -32000
)

const jsonrpcVersion = "2.0"

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// Request is a single JSON-RPC 2.0 call. Batches are not accepted.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 reply carrying either Result or Error.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData is the data member of application errors.
type ErrorData struct {
	Code         string `json:"code"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

// ParseRequest decodes one request. Malformed JSON wraps errParse; well-formed JSON that is
// not a usable call wraps errInvalidRequest.
func ParseRequest(body io.Reader) (Request, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return Request{}, fmt.Errorf("%w: batch requests are not supported", errInvalidRequest)
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	switch {
	case req.JSONRPC != jsonrpcVersion:
		return Request{}, fmt.Errorf("%w: jsonrpc must be %q", errInvalidRequest, jsonrpcVersion)
	case req.Method == "":
		return Request{}, fmt.Errorf("%w: method is required", errInvalidRequest)
	}

	params := bytes.TrimSpace(req.Params)
	if len(params) > 0 && !bytes.Equal(params, []byte("null")) && params[0] != '{' {
		return Request{}, fmt.Errorf("%w: params must be an object", errInvalidRequest)
	}
	return req, nil
}

// WriteResult writes a success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, Response{JSONRPC: jsonrpcVersion, Result: result, ID: id})
}

// WriteError writes an error response. JSON-RPC errors travel with HTTP 200.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, Response{
		JSONRPC: jsonrpcVersion,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
