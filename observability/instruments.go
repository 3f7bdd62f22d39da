package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Metric names recorded by lifecycle components.
const (
	MetricTransitions   = "lifecycle.transitions"
	MetricProbeTotal    = "probe.total"
	MetricProbeDuration = "probe.duration"
)

// Instruments bundles the tracer and metric instruments a lifecycle
// component reports through. A nil *Instruments is not valid; use
// NoopInstruments when nothing should be recorded.
type Instruments struct {
	tracer        trace.Tracer
	transitions   metric.Int64Counter
	probeTotal    metric.Int64Counter
	probeDuration metric.Float64Histogram
}

// NewInstruments creates the instruments on the given tracer and meter.
func NewInstruments(tracer trace.Tracer, meter metric.Meter) (*Instruments, error) {
	transitions, err := meter.Int64Counter(MetricTransitions,
		metric.WithDescription("Lifecycle state transitions by component and target state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricTransitions, err)
	}

	probeTotal, err := meter.Int64Counter(MetricProbeTotal,
		metric.WithDescription("Connectivity probes by component and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricProbeTotal, err)
	}

	probeDuration, err := meter.Float64Histogram(MetricProbeDuration,
		metric.WithDescription("Duration of connectivity probes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricProbeDuration, err)
	}

	return &Instruments{
		tracer:        tracer,
		transitions:   transitions,
		probeTotal:    probeTotal,
		probeDuration: probeDuration,
	}, nil
}

// DefaultInstruments creates instruments on the global providers, so they
// follow whatever InitTracer and InitMeter install later.
func DefaultInstruments() *Instruments {
	inst, err := NewInstruments(Tracer(instrumentationName), Meter(instrumentationName))
	if err != nil {
		return NoopInstruments()
	}
	return inst
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	inst, _ := NewInstruments(
		tracenoop.NewTracerProvider().Tracer(instrumentationName),
		metricnoop.NewMeterProvider().Meter(instrumentationName),
	)
	return inst
}

// StartSpan starts a span tagged with the component name.
func (i *Instruments) StartSpan(ctx context.Context, component, name string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attribute.String(AttrComponent, component)))
}

// RecordTransition counts a move of component into state and annotates
// the current span.
func (i *Instruments) RecordTransition(ctx context.Context, component, state string) {
	i.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponent, component),
		attribute.String(AttrState, state),
	))
	trace.SpanFromContext(ctx).AddEvent("state."+state)
}

// RecordProbe records the outcome and duration of a connectivity probe.
func (i *Instruments) RecordProbe(ctx context.Context, component string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	i.probeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponent, component),
		attribute.String(AttrStatus, status),
	))
	i.probeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrComponent, component),
	))
}
