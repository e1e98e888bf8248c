// Package telemetry wires OpenTelemetry tracing into the orchestrator's
// per-domain state machine: one span per domain scan, one child span per
// profile execution, with rate-limit events recorded as span events.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ltdomains/domain-analyzer/internal/orchestrator"

// Tracer wraps the global otel Tracer under a fixed instrumentation name.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer bound to the global TracerProvider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(instrumentationName)}
}

// StartDomainScan opens the root span for scanning one domain.
func (t *Tracer) StartDomainScan(ctx context.Context, domainName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "domain_scan", trace.WithAttributes(
		attribute.String("domain.name", domainName),
	))
}

// StartProfile opens a child span for running one profile.
func (t *Tracer) StartProfile(ctx context.Context, profileName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "profile_execution", trace.WithAttributes(
		attribute.String("profile.name", profileName),
	))
}

// RecordRateLimitDenial records a token-bucket denial as a span event on
// span, without failing the span itself (a denial is an expected outcome,
// not an error).
func RecordRateLimitDenial(span trace.Span, bucket string) {
	span.AddEvent("rate_limit.denied", trace.WithAttributes(
		attribute.String("bucket", bucket),
	))
}

// RecordWHOISDegraded records that a WHOIS lookup fell back to DAS-only
// because its rate limiter denied the request.
func RecordWHOISDegraded(span trace.Span, domainName string) {
	span.AddEvent("whois.rate_limited", trace.WithAttributes(
		attribute.String("domain.name", domainName),
	))
}

// EndWithError sets span's status from err (nil means success) and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}
