package httptransport

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logExchange writes a log message describing a completed exchange.
//
// Successful exchanges are logged at the debug level, failures at the warn
// level. The authorization header is never logged.
func (t *Transport) logExchange(
	ctx context.Context,
	x exchange,
	out outcome,
	err error,
) {
	level := zapcore.DebugLevel
	if err != nil {
		level = zapcore.WarnLevel
	}

	var w strings.Builder
	writeExchange(&w, x)

	ce := t.logger.Check(level, w.String())
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("target", t.target),
		zap.Int("request_count", x.Count),
		zap.Int("payload_size", out.PayloadSize),
		zap.Duration("duration", out.Duration),
	}

	if out.StatusCode != 0 {
		fields = append(
			fields,
			zap.Int("status_code", out.StatusCode),
			zap.Int("response_size", out.ResponseSize),
		)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		fields = append(fields, zap.String("trace_id", span.SpanContext().TraceID().String()))
	}

	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
	}

	ce.Write(fields...)
}

// writeExchange writes a short description of an exchange to w.
func writeExchange(w *strings.Builder, x exchange) {
	switch x.Shape {
	case shapeSingle:
		w.WriteString("call ")
		writeMethod(w, x.Method)
	case shapeBatch:
		fmt.Fprintf(w, "batch of %d", x.Count)
	default:
		w.WriteString("post")
	}
}

// writeMethod formats a JSON-RPC method name for display and writes it to w.
func writeMethod(w *strings.Builder, m string) {
	if m == "" || !isAlphaNumeric(m) {
		fmt.Fprintf(w, "%#v", m)
	} else {
		w.WriteString(m)
	}
}

// isAlphaNumeric returns true if s consists of only letters and digits.
func isAlphaNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}

	return true
}
