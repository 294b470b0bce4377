package httptransport

import (
	"context"
	"net/http"
	"strings"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName is the name of the OpenTelemetry instrumentation library
// that produces spans for each exchange.
const instrumentationName = "github.com/dogmatiq/rpcpost/transport/httptransport"

// batchSizeKey is the attribute key for the number of requests in a batch.
const batchSizeKey = attribute.Key("rpc.jsonrpc.batch_size")

// newTracer returns the tracer used to create spans.
func newTracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return tp.Tracer(
		instrumentationName,
		trace.WithInstrumentationVersion(version.Version),
	)
}

// startSpan starts a client span for an exchange.
func (t *Transport) startSpan(ctx context.Context, x exchange) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(
		ctx,
		spanName(x),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	span.SetAttributes(
		semconv.RPCSystemKey.String("jsonrpc"),
		semconv.HTTPMethodKey.String(http.MethodPost),
		semconv.HTTPURLKey.String(t.target),
	)

	switch x.Shape {
	case shapeSingle:
		span.SetAttributes(
			semconv.RPCMethodKey.String(x.Method),
			semconv.RPCJsonrpcVersionKey.String(rpcpost.JSONRPCVersion),
			semconv.RPCJsonrpcRequestIDKey.String(sanitizeRequestID(string(x.RequestID))),
		)
	case shapeBatch:
		span.SetAttributes(
			semconv.RPCJsonrpcVersionKey.String(rpcpost.JSONRPCVersion),
			batchSizeKey.Int(x.Count),
		)
	}

	return ctx, span
}

// endSpan records the outcome of an exchange and ends the span.
func endSpan(span trace.Span, out outcome, err error) {
	if out.StatusCode != 0 {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(out.StatusCode))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// spanName returns the name of the span for an exchange.
func spanName(x exchange) string {
	switch x.Shape {
	case shapeSingle:
		return "jsonrpc/" + sanitizeMethodName(x.Method)
	case shapeBatch:
		return "jsonrpc/batch"
	default:
		return "jsonrpc"
	}
}

// sanitizeRequestID returns a request ID suitable for use as a span attribute.
//
// As per semconv.RPCJsonrpcRequestIDKey it returns an empty string if the
// request ID is null.
func sanitizeRequestID(id string) string {
	if strings.EqualFold(id, "null") {
		return ""
	}

	return strings.Trim(id, `"`)
}

// sanitizeMethodName returns an RPC method name suitable for use in part of
// span name.
func sanitizeMethodName(n string) string {
	return strings.ReplaceAll(n, "/", "-")
}
