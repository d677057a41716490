package otelhelper

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed and records err with its Go type, so a
// *queue.TransitionError and a *services.TransportError stay apart in traces.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attribute.String(ErrorTypeKey, fmt.Sprintf("%T", err))))
	span.SetStatus(codes.Error, err.Error())
}
