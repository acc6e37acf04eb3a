// Package observe provides application-wide observability primitives for
// Inkluziv: OpenTelemetry metrics, tracing helpers, context-aware logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from the standard /metrics endpoint. A package-level default
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

// meterName is the instrumentation scope name used for all Inkluziv metrics.
const meterName = "github.com/Kingvic300/Inkluziv--wallet"

// Command outcomes recorded on [Metrics.Commands].
const (
	OutcomeExecuted      = "executed"
	OutcomeNotRecognized = "not_recognized"
	OutcomeFlowStarted   = "flow_started"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Voice pipeline ---

	// Commands counts final transcripts resolved by the matcher. Use with
	// attributes:
	//   attribute.String("command", ...), attribute.String("outcome", ...)
	Commands metric.Int64Counter

	// Dropped counts final transcripts ignored because a dispatch was in
	// progress.
	Dropped metric.Int64Counter

	// RecognitionErrors counts capture adapter errors. Use with attribute:
	//   attribute.String("code", ...)
	RecognitionErrors metric.Int64Counter

	// DialogueTransitions counts dialogue steps entered. Use with attribute:
	//   attribute.String("step", ...)
	DialogueTransitions metric.Int64Counter

	// DispatchDuration tracks the time spent executing an action or a
	// dialogue answer, excluding the feedback delay.
	DispatchDuration metric.Float64Histogram

	// --- Wallet ---

	// Transfers counts voice-initiated transfers. Use with attributes:
	//   attribute.String("currency", ...), attribute.String("status", ...)
	Transfers metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live UI sessions (WebSocket
	// connections and the console).
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// in-process dispatch latencies.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.Commands, err = m.Int64Counter("inkluziv.voice.commands",
		metric.WithDescription("Final transcripts by matched command and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Dropped, err = m.Int64Counter("inkluziv.voice.dropped",
		metric.WithDescription("Final transcripts dropped while a dispatch was in progress."),
	); err != nil {
		return nil, err
	}
	if met.RecognitionErrors, err = m.Int64Counter("inkluziv.voice.recognition.errors",
		metric.WithDescription("Speech recognition errors by code."),
	); err != nil {
		return nil, err
	}
	if met.DialogueTransitions, err = m.Int64Counter("inkluziv.voice.dialogue.transitions",
		metric.WithDescription("Dialogue steps entered by step name."),
	); err != nil {
		return nil, err
	}
	if met.Transfers, err = m.Int64Counter("inkluziv.wallet.transfers",
		metric.WithDescription("Voice-initiated wallet transfers by currency and status."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.DispatchDuration, err = m.Float64Histogram("inkluziv.voice.dispatch.duration",
		metric.WithDescription("Latency of command and dialogue dispatch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("inkluziv.active_sessions",
		metric.WithDescription("Number of live UI sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("inkluziv.http.request.duration",
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

// RecordCommand records a resolved transcript.
func (m *Metrics) RecordCommand(ctx context.Context, command, outcome string) {
	m.Commands.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordDropped records a final transcript ignored during a dispatch.
func (m *Metrics) RecordDropped(ctx context.Context) {
	m.Dropped.Add(ctx, 1)
}

// RecordRecognitionError records a capture adapter error.
func (m *Metrics) RecordRecognitionError(ctx context.Context, code string) {
	m.RecognitionErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("code", code)),
	)
}

// RecordDialogueStep records a dialogue step being entered.
func (m *Metrics) RecordDialogueStep(ctx context.Context, step string) {
	m.DialogueTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("step", step)),
	)
}

// RecordTransfer records a wallet transfer attempt.
func (m *Metrics) RecordTransfer(ctx context.Context, currency, status string) {
	m.Transfers.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("currency", currency),
			attribute.String("status", status),
		),
	)
}
