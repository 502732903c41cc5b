package tag

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// tagMetrics holds the package's OTel instruments. The default
// instance binds to the global meter provider; configure it with
// otel.SetMeterProvider before the first tag operation, or leave the
// default no-op provider in place.
type tagMetrics struct {
	operations metric.Int64Counter
	opErrors   metric.Int64Counter
	opLatency  metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *tagMetrics
)

func newTagMetrics() (*tagMetrics, error) {
	meter := otel.Meter("tagruntime")

	operations, err := meter.Int64Counter("tagruntime.tag.operations",
		metric.WithDescription("Number of tag operations"),
	)
	if err != nil {
		return nil, err
	}

	opErrors, err := meter.Int64Counter("tagruntime.tag.errors",
		metric.WithDescription("Number of failed tag operations"),
	)
	if err != nil {
		return nil, err
	}

	opLatency, err := meter.Float64Histogram("tagruntime.tag.latency_ms",
		metric.WithDescription("Tag operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &tagMetrics{
		operations: operations,
		opErrors:   opErrors,
		opLatency:  opLatency,
	}, nil
}

func instruments() *tagMetrics {
	metricsOnce.Do(func() {
		metricsInst, _ = newTagMetrics()
	})
	return metricsInst
}

// record registers one completed operation.
func (m *tagMetrics) record(op string, err error, elapsed time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("op", op))

	m.operations.Add(ctx, 1, attrs)
	m.opLatency.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	if err != nil {
		m.opErrors.Add(ctx, 1, attrs)
	}
}

// recordOp records against the default instruments. Called from entry
// workers; an instrument init failure drops the sample.
func recordOp(op string, err error, elapsed time.Duration) {
	if m := instruments(); m != nil {
		m.record(op, err, elapsed)
	}
}
