package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentlink"

// Metrics holds all AgentLink metric instruments.
type Metrics struct {
	QueriesStarted   metric.Int64Counter
	QueriesCompleted metric.Int64Counter
	QueriesFailed    metric.Int64Counter
	AgentCalls       metric.Int64Counter
	QueryDuration    metric.Float64Histogram
	CallDuration     metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.QueriesStarted, err = meter.Int64Counter("agentlink.queries.started",
		metric.WithDescription("Number of queries received"))
	if err != nil {
		return nil, err
	}

	m.QueriesCompleted, err = meter.Int64Counter("agentlink.queries.completed",
		metric.WithDescription("Number of queries completed"))
	if err != nil {
		return nil, err
	}

	m.QueriesFailed, err = meter.Int64Counter("agentlink.queries.failed",
		metric.WithDescription("Number of queries failed"))
	if err != nil {
		return nil, err
	}

	m.AgentCalls, err = meter.Int64Counter("agentlink.agent.calls",
		metric.WithDescription("Number of outbound inter-agent calls"))
	if err != nil {
		return nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram("agentlink.query.duration_seconds",
		metric.WithDescription("Query handling duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.CallDuration, err = meter.Float64Histogram("agentlink.agent.call_duration_seconds",
		metric.WithDescription("Outbound inter-agent call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
