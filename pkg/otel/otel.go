// Package otel wires the global OTLP trace exporter. Setup is best-effort:
// callers log a warning on failure instead of aborting startup.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup installs a global tracer provider exporting over OTLP/HTTP. The
// exporter endpoint comes from the standard OTEL_* environment variables.
func Setup(name, version string) error {
	exporter, err := otlptracehttp.New(context.Background())

	if err != nil {
		return err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		)),
	)

	otel.SetTracerProvider(provider)

	return nil
}
