// Package observe provides application-wide observability primitives for
// roomspatial: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all roomspatial metrics.
const meterName = "github.com/roomspatial/roomspatial"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// HandshakeDuration tracks the mid-session init handshake's round-trip
	// latency (spec.md §4.6).
	HandshakeDuration metric.Float64Histogram

	// TickDuration tracks one room's per-tick processing time (spec.md §4.7).
	TickDuration metric.Float64Histogram

	// --- Counters ---

	// PoseUpdates counts local and remote pose updates applied. Use with
	// attribute.String("source", "local"|"remote").
	PoseUpdates metric.Int64Counter

	// HandshakeRetries counts handshake retry attempts (spec.md §4.6).
	HandshakeRetries metric.Int64Counter

	// SpatializerFallbacks counts capability-probing fallthroughs to a lower
	// spatializer variant. Use with
	//   attribute.String("from", ...), attribute.String("to", ...)
	SpatializerFallbacks metric.Int64Counter

	// ActivityTransitions counts talking/not-talking transitions detected by
	// the activity detector (spec.md §3.2).
	ActivityTransitions metric.Int64Counter

	// ConferenceReconnects counts conference backend reconnection attempts
	// (spec.md §5's reconnection supplement).
	ConferenceReconnects metric.Int64Counter

	// --- Gauges ---

	// ActiveParticipants tracks the number of connected participants across
	// all hosted rooms.
	ActiveParticipants metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for real-time session-coordination latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HandshakeDuration, err = m.Float64Histogram("roomspatial.handshake.duration",
		metric.WithDescription("Latency of the mid-session init handshake."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TickDuration, err = m.Float64Histogram("roomspatial.tick.duration",
		metric.WithDescription("Per-room game-loop tick processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.PoseUpdates, err = m.Int64Counter("roomspatial.pose.updates",
		metric.WithDescription("Total local and remote pose updates applied, by source."),
	); err != nil {
		return nil, err
	}
	if met.HandshakeRetries, err = m.Int64Counter("roomspatial.handshake.retries",
		metric.WithDescription("Total handshake retry attempts."),
	); err != nil {
		return nil, err
	}
	if met.SpatializerFallbacks, err = m.Int64Counter("roomspatial.spatializer.fallbacks",
		metric.WithDescription("Total capability-probing fallthroughs between spatializer variants."),
	); err != nil {
		return nil, err
	}
	if met.ActivityTransitions, err = m.Int64Counter("roomspatial.activity.transitions",
		metric.WithDescription("Total talking/not-talking transitions detected."),
	); err != nil {
		return nil, err
	}
	if met.ConferenceReconnects, err = m.Int64Counter("roomspatial.conference.reconnects",
		metric.WithDescription("Total conference backend reconnection attempts."),
	); err != nil {
		return nil, err
	}

	if met.ActiveParticipants, err = m.Int64UpDownCounter("roomspatial.active_participants",
		metric.WithDescription("Number of connected participants across all hosted rooms."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("roomspatial.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordPoseUpdate is a convenience method that records a pose-update
// counter increment for the given source ("local" or "remote").
func (m *Metrics) RecordPoseUpdate(ctx context.Context, source string) {
	m.PoseUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordHandshakeRetry is a convenience method that records a handshake
// retry counter increment.
func (m *Metrics) RecordHandshakeRetry(ctx context.Context) {
	m.HandshakeRetries.Add(ctx, 1)
}

// RecordSpatializerFallback is a convenience method that records a
// capability-probing fallthrough between spatializer variants.
func (m *Metrics) RecordSpatializerFallback(ctx context.Context, from, to string) {
	m.SpatializerFallbacks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}

// RecordActivityTransition is a convenience method that records a
// talking/not-talking transition.
func (m *Metrics) RecordActivityTransition(ctx context.Context, talking bool) {
	m.ActivityTransitions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("talking", talking)))
}

// RecordConferenceReconnect is a convenience method that records a
// conference backend reconnection attempt.
func (m *Metrics) RecordConferenceReconnect(ctx context.Context, roomID string) {
	m.ConferenceReconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("room_id", roomID)))
}
