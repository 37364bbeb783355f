package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter = otel.Meter("murmur/business")

	// Transcription metrics
	TranscriptionsTotal   metric.Int64Counter       = noop.Int64Counter{}
	TranscriptionDuration metric.Float64Histogram   = noop.Float64Histogram{}
	TranscriptPollsTotal  metric.Int64Counter       = noop.Int64Counter{}
	JobsInFlight          metric.Int64UpDownCounter = noop.Int64UpDownCounter{}

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter     = noop.Int64Counter{}
	ExternalAPIDuration   metric.Float64Histogram = noop.Float64Histogram{}
)

// Init registers the instruments against the global meter provider. Until it
// is called every instrument is a no-op.
func Init() error {
	var err error

	TranscriptionsTotal, err = meter.Int64Counter(
		"transcription.requests.total",
		metric.WithDescription("Total number of transcription requests by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	TranscriptionDuration, err = meter.Float64Histogram(
		"transcription.duration",
		metric.WithDescription("Wall-clock duration from request start to terminal transcript state"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return err
	}

	TranscriptPollsTotal, err = meter.Int64Counter(
		"transcription.polls.total",
		metric.WithDescription("Total number of transcript status polls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	JobsInFlight, err = meter.Int64UpDownCounter(
		"transcription.jobs.in_flight",
		metric.WithDescription("Transcription requests currently being orchestrated"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	// External API metrics
	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordExternalCall records one outbound provider call.
func RecordExternalCall(ctx context.Context, provider, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	ExternalAPICallsTotal.Add(ctx, 1, attrs)
	ExternalAPIDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// RecordTranscription records a finished transcription request.
func RecordTranscription(ctx context.Context, source, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	)
	TranscriptionsTotal.Add(ctx, 1, attrs)
	TranscriptionDuration.Record(ctx, duration.Seconds(), attrs)
}
