package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// NoopSink accepts and discards every event.
type NoopSink struct{}

func (NoopSink) Send(context.Context, Event) error { return nil }

// MultiSink sends each event to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that implements Close.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events as structured log entries.
type LogSink struct {
	logger logrus.FieldLogger
}

// NewLogSink returns a LogSink. A nil logger selects logrus.StandardLogger.
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, event Event) error {
	fields := make(logrus.Fields, len(event.Properties)+1)
	for k, v := range event.Properties {
		fields[k] = v
	}
	fields["event"] = event.Name
	s.logger.WithFields(fields).Info("telemetry event")
	return nil
}

// OTelSink records each event as a short span carrying a span event.
type OTelSink struct {
	tracer oteltrace.Tracer
}

// NewOTelSink returns a sink that records on tracer.
func NewOTelSink(tracer oteltrace.Tracer) *OTelSink {
	return &OTelSink{tracer: tracer}
}

func (s *OTelSink) Send(ctx context.Context, event Event) error {
	attrs := make([]attribute.KeyValue, 0, len(event.Properties))
	for _, k := range event.SortedKeys() {
		attrs = append(attrs, attribute.String(k, event.Properties[k]))
	}

	_, span := s.tracer.Start(ctx, "telemetry "+event.Name)
	span.AddEvent(event.Name, oteltrace.WithAttributes(attrs...), oteltrace.WithTimestamp(event.Timestamp))
	span.End()
	return nil
}

// PrometheusSink counts events per name and service.
type PrometheusSink struct {
	events *prometheus.CounterVec
}

// NewPrometheusSink registers aad_telemetry_events_total on reg, reusing
// an identical collector that is already registered.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aad_telemetry_events_total",
		Help: "Telemetry events tracked by the AAD filter.",
	}, []string{"event", "service_name"})

	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}

	return &PrometheusSink{events: vec}, nil
}

func (s *PrometheusSink) Send(_ context.Context, event Event) error {
	s.events.WithLabelValues(event.Name, event.Properties[ServiceNameKey]).Inc()
	return nil
}
