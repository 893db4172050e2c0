package http

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the API request instruments. Requests are labelled by route
// pattern rather than raw path so order ids do not multiply the series.
type Metrics struct {
	requestLatency metric.Float64Histogram
	requestsTotal  metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestLatency, err := meter.Float64Histogram(
		"api_request_latency_seconds",
		metric.WithDescription("API request latency by route"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create api_request_latency histogram: %w", err)
	}

	requestsTotal, err := meter.Int64Counter(
		"api_requests_total",
		metric.WithDescription("API requests by route and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create api_requests_total counter: %w", err)
	}

	return &Metrics{
		requestLatency: requestLatency,
		requestsTotal:  requestsTotal,
	}, nil
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestLatency.Record(ctx, durationSeconds, attrs)
}
