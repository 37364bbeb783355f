// Package telemetry provides OpenTelemetry initialization and helpers
// for tracing, logs and metrics across the murmur service.
//
// The package configures OTLP HTTP export for all three signals against a
// single collector endpoint.
package telemetry
