package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartOpSpan creates a child span for one engine operation (put, get,
// remove, clear, iterate), attaching the operation name and fingerprint
// once it's known.
func StartOpSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "engine."+op,
		trace.WithAttributes(attribute.String("canonstore.op", op)),
	)
}

// StartSerializeSpan creates a child span for a serializer dispatch.
func StartSerializeSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "serialize.dispatch")
}

// SetFingerprint attaches the computed fingerprint to the current span,
// truncated since fingerprints of deeply nested keys can be long.
func SetFingerprint(ctx context.Context, fingerprint string) {
	const maxAttrLen = 256
	if len(fingerprint) > maxAttrLen {
		fingerprint = fingerprint[:maxAttrLen]
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("canonstore.fingerprint", fingerprint))
}

// SetOutcome records whether an operation hit, missed, or fell back.
func SetOutcome(ctx context.Context, outcome string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("canonstore.outcome", outcome))
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}

// InjectHeaders injects the current trace context into outgoing HTTP
// request headers.
func InjectHeaders(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
