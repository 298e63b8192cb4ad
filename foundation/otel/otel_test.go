package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func Test_EndpointExcluder(t *testing.T) {
	ee := newEndpointExcluder(map[string]struct{}{"/liveness": {}}, 1)

	res := ee.ShouldSample(sdktrace.SamplingParameters{
		Attributes: []attribute.KeyValue{attribute.String("url.path", "/liveness")},
	})
	assert.Equal(t, sdktrace.Drop, res.Decision)

	res = ee.ShouldSample(sdktrace.SamplingParameters{
		Attributes: []attribute.KeyValue{attribute.String("url.path", "/auth/sign-in")},
	})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}

func Test_TraceIDDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, defaultTraceID, GetTraceID(ctx))

	ctx = InjectTracing(ctx, noop.NewTracerProvider().Tracer("test"))
	assert.Equal(t, defaultTraceID, GetTraceID(ctx))

	spanCtx, span := AddSpan(ctx, "test.span")
	defer span.End()
	assert.NotNil(t, spanCtx)
}
