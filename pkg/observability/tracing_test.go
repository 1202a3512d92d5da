package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tr, err := NewTracer(TracingConfig{ServiceName: "importdata"})
	require.NoError(t, err)

	ctx, span := tr.StartSpan(context.Background(), "connect")
	span.SetAttribute("backend", "sqlite")
	span.End()

	assert.False(t, spanContextValid(ctx))
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestStdoutTracerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracer(TracingConfig{
		Enabled:        true,
		ServiceName:    "importdata",
		ServiceVersion: "test",
		Writer:         &buf,
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tr.Trace(context.Background(), "create_table", func(ctx context.Context) error {
		_, span := tr.StartSpan(ctx, "execute")
		span.SetAttribute("rows", 3)
		span.End()
		return boom
	})
	assert.Equal(t, boom, err)

	require.NoError(t, tr.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"create_table"`)
	assert.Contains(t, out, `"Name":"execute"`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "importdata")
}

func TestNilTracer(t *testing.T) {
	var tr *Tracer
	_, span := tr.StartSpan(context.Background(), "x")
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func spanContextValid(ctx context.Context) bool {
	return trace.SpanContextFromContext(ctx).IsValid()
}
