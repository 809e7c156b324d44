package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps JSON-RPC request bodies.
const maxBodyBytes = 1 << 20

// RPCHandler handles JSON-RPC method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, clientID, idempotencyKey, method string, params json.RawMessage) (any, error)
}

// codedError is implemented by errors that carry a stable application code.
type codedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// Options configures the HTTP router.
type Options struct {
	// Auth scopes requests to a client. Use StaticClient when auth is disabled.
	Auth func(http.Handler) http.Handler
	// MCP, when set, is mounted at /mcp behind Auth.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Use(IdempotencyMiddleware)

		r.Post("/rpc", srv.handleRPC)
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, errParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	clientID, ok := ClientFromContext(r.Context())
	if !ok || clientID == "" {
		http.Error(w, "missing client", http.StatusUnauthorized)
		return
	}

	key, _ := IdempotencyKeyFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), clientID, key, req.Method, req.Params)
	if err != nil {
		s.writeHandlerError(w, r, req, err)
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) writeHandlerError(w http.ResponseWriter, r *http.Request, req Request, err error) {
	if errors.Is(err, ErrUnauthorized) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var coded codedError
	if errors.As(err, &coded) {
		code := ErrApplication
		switch coded.CodeValue() {
		case "METHOD_NOT_FOUND":
			code = ErrMethodNotFound
		case "INVALID_PARAMS":
			code = ErrInvalidParams
		}
		WriteError(w, req.ID, code, coded.MessageValue(), ErrorData{
			Code:         coded.CodeValue(),
			Details:      coded.DetailsValue(),
			RecoveryHint: coded.RecoveryHintValue(),
		})
		return
	}

	if s.logger != nil {
		s.logger.Error("rpc failed", "method", req.Method, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	WriteError(w, req.ID, ErrInternal, "internal error", nil)
}
