package middleware

import (
	"log/slog"
	"net/http"

	"github.com/redpen-app/redpen-api/internal/api/shared"
)

// TraceMiddleware assigns each request a trace ID. It runs first in the
// chain so every handler and error response can correlate on the ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
