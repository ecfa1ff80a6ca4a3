package commands

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("assembly/contexts/assembly-governance/voting-rights/application/commands")

// startSpan opens a child span of the inbound request for one use case.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "voting_rights."+name, trace.WithAttributes(attrs...))
}
