// Package tracing provides lightweight request tracing for the gateway.
//
// Each HTTP request gets a span named after its route. Spans carry the
// trace and span identifiers in the request context, accept tags and a
// status, and are emitted through zap by a background collector when
// finished. Inbound X-Trace-ID/X-Span-ID headers join an existing trace;
// the response always echoes the identifiers back.
//
// This is intentionally not a full OpenTelemetry pipeline. Span output
// goes to the structured log, which is enough to correlate a client
// report with the upstream calls made on its behalf.
//
// Example Usage:
//
//	tracer := tracing.New("gateway", logger.Logger)
//	router.Use(tracing.HTTPMiddleware(tracer))
package tracing
