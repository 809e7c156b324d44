package transport

import (
	"context"
	"net/http"
	"strings"
)

// IdempotencyHeader names the request key header.
const IdempotencyHeader = "Idempotency-Key"

// maxIdempotencyKeyLen bounds stored keys.
const maxIdempotencyKeyLen = 255

type idempotencyKey struct{}

// IdempotencyKeyFromContext returns the request's idempotency key, if present.
func IdempotencyKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey{}).(string)
	return key, ok
}

// IdempotencyMiddleware extracts Idempotency-Key and stores it in context.
func IdempotencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			http.Error(w, "idempotency key too long", http.StatusBadRequest)
			return
		}
		ctx := context.WithValue(r.Context(), idempotencyKey{}, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
