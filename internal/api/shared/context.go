package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is a private key type so request-scoped values cannot collide
// with keys set by other packages.
type ContextKey string

const (
	// UserIDContextKey carries the authenticated user's uuid.UUID, set by the
	// auth middleware after token validation.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey carries the per-request trace ID used to correlate log lines
	// with error responses.
	TraceIDKey ContextKey = "traceID"
)

// traceIDBytes gives a 32-character hex trace ID.
const traceIDBytes = 16

// SetTraceID returns a child context carrying a freshly generated trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the trace ID from the context, or "" when none was set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

func newTraceID() string {
	b := make([]byte, traceIDBytes)
	if n, err := rand.Read(b); err != nil || n != traceIDBytes {
		slog.Error("failed to generate random trace ID",
			"error", err,
			"bytes_read", n)
		return timeBasedTraceID()
	}
	return hex.EncodeToString(b)
}

// timeBasedTraceID is the fallback when the system entropy source fails.
// Two clock readings at different precisions keep concurrent requests from
// colliding; the ID is not static even without randomness.
func timeBasedTraceID() string {
	b := make([]byte, traceIDBytes)
	binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(time.Now().Nanosecond()))
	binary.BigEndian.PutUint32(b[12:16], uint32(time.Now().Unix()))
	return hex.EncodeToString(b)
}
