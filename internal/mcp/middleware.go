package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	clientIDKey contextKey = iota
	idempotencyKey
)

// IdempotencyHeader carries the HTTP request key; stdio clients send _meta.idempotency_key.
const IdempotencyHeader = "Idempotency-Key"

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// getClientID extracts the client ID from context.
func getClientID(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}

// getIdempotencyKey extracts the request idempotency key from context.
func getIdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(idempotencyKey).(string)
	return v
}

// ClientResolver resolves a client ID from a bearer token.
type ClientResolver interface {
	ResolveClient(ctx context.Context, token string) (string, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver ClientResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}
			if resolver == nil {
				return nil, fmt.Errorf("%w: no credential resolver", ErrUnauthorized)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("%w: missing headers", ErrUnauthorized)
			}

			token := bearerToken(extra.Header.Get("Authorization"))
			if token == "" {
				return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
			}

			clientID, err := resolver.ResolveClient(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
			}
			if clientID == "" {
				return nil, fmt.Errorf("%w: invalid bearer token", ErrUnauthorized)
			}

			ctx = context.WithValue(ctx, clientIDKey, clientID)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a default client when auth is disabled.
func noAuthMiddleware(defaultClient string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, clientIDKey, defaultClient)
			return next(ctx, method, req)
		}
	}
}

// idempotencyMiddleware extracts the request key from the Idempotency-Key header (HTTP) or
// _meta.idempotency_key (stdio).
func idempotencyMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var key string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				key = strings.TrimSpace(extra.Header.Get(IdempotencyHeader))
			}

			// Some notifications carry nil params behind a non-nil interface.
			if key == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if k, ok := meta["idempotency_key"].(string); ok {
								key = strings.TrimSpace(k)
							}
						}
					}()
				}
			}

			if key != "" {
				ctx = context.WithValue(ctx, idempotencyKey, key)
			}
			return next(ctx, method, req)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
