package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withTrace := SetTraceID(ctx)

	traceID := GetTraceID(withTrace)
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	// Parent context is untouched.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWrongValueType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestNewTraceIDUniqueness(t *testing.T) {
	t.Parallel()

	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := newTraceID()
		require.Len(t, id, 32)
		require.False(t, seen[id], "trace IDs must not repeat")
		seen[id] = true
	}
}

func TestTimeBasedTraceID(t *testing.T) {
	t.Parallel()

	const iterations = 50
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := timeBasedTraceID()
		require.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		require.NoError(t, err)

		// Advance the clock so the time-derived bytes differ.
		time.Sleep(time.Millisecond)

		require.False(t, seen[id], "fallback trace IDs must not repeat")
		seen[id] = true
	}
}
