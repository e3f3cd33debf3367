package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentlink"

// SpanManager wraps operations in spans. With telemetry disabled the
// global tracer is a no-op and WithSpan degrades to calling fn directly;
// fn is always invoked exactly once either way.
type SpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager creates a span manager on the global tracer provider.
// Call it after Setup so it picks up the configured provider.
func NewSpanManager() *SpanManager {
	return &SpanManager{tracer: otel.Tracer(tracerName)}
}

// WithSpan runs fn inside a span with the given name and attributes,
// recording fn's error on the span. The error is returned unchanged so
// callers keep their normal error flow.
func (sm *SpanManager) WithSpan(ctx context.Context, name string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	ctx, span := sm.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MessageAttrs describes one handled message. Attribute names follow the
// a2a.* convention used across the agent fleet.
func MessageAttrs(agentName, messageID, capability string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("agent.name", agentName),
		attribute.String("a2a.message.id", messageID),
		attribute.String("capability.name", capability),
	}
}

// DiscoveryAttrs describes one discovery sweep.
func DiscoveryAttrs(endpoints int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("discovery.endpoints", endpoints),
	}
}

// TaskAttrs describes one background task execution.
func TaskAttrs(agentName, taskID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("agent.name", agentName),
		attribute.String("task.id", taskID),
	}
}

// CommunicationAttrs describes one outbound inter-agent call.
func CommunicationAttrs(fromAgent, toAgent string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("from.agent", fromAgent),
		attribute.String("to.agent", toAgent),
		attribute.String("communication.direction", "outbound"),
	}
}
