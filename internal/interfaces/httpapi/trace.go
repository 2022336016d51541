package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("fixture-ingestion/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// startSpan only opens spans for handlers, and only under a request span.
// Untraced routes such as /healthz get the no-op span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

func ingestRequestAttributes(req usecase.IngestRequest) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool("ingest.force", req.Force)}
	if len(req.Providers) > 0 {
		attrs = append(attrs, attribute.StringSlice("ingest.providers", req.Providers))
	}
	if req.League != "" {
		attrs = append(attrs, attribute.String("ingest.league", req.League))
	}
	if !req.Date.IsZero() {
		attrs = append(attrs, attribute.String("ingest.date", req.Date.Format(time.DateOnly)))
	}
	return attrs
}

func ingestReportAttributes(report usecase.IngestionReport) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("ingest.added", report.Added),
		attribute.Int("ingest.skipped", report.Skipped),
		attribute.Int("ingest.dropped", report.Dropped),
		attribute.Int("ingest.failed", report.Failed),
		attribute.Int("ingest.errors", len(report.Errors)),
	}
}
