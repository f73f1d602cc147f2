package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithContextAddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	globalLogger = New(&buf, Config{Service: "onboarding", Level: "debug", Format: "json"})
	t.Cleanup(func() { globalLogger = nil })

	ctx := ContextWithTrace(context.Background(), "trace-1", "span-1")
	Info(ctx, "hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "trace-1", line["trace_id"])
	require.Equal(t, "span-1", line["span_id"])
	require.Equal(t, "onboarding", line["service"])
	require.Equal(t, "v", line["k"])
	require.Equal(t, "trace-1", TraceID(ctx))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	globalLogger = New(&buf, Config{Level: "warn", Format: "text"})
	t.Cleanup(func() { globalLogger = nil })

	Info(context.Background(), "dropped")
	require.Zero(t, buf.Len())

	Warn(context.Background(), "kept")
	require.Contains(t, buf.String(), "kept")
}
