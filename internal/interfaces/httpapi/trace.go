package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Only handler-level operations earn their own span. Middleware and the
// response helpers run on every request and would flood a trace with
// sub-millisecond children, so they ride on the parent span instead.
const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer   = otel.Tracer("predictor/internal/interfaces/httpapi")
	passthrough = trace.SpanFromContext(context.Background())
)

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, handlerSpanPrefix) {
		return ctx, passthrough
	}
	if parent := trace.SpanFromContext(ctx); !parent.SpanContext().IsValid() {
		// Filtered routes such as /healthz carry no parent span; starting
		// one here would leave orphan roots for internal helpers.
		return ctx, passthrough
	}
	return apiTracer.Start(ctx, name)
}
