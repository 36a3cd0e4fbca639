package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

/*
LEARNING: TRACING THE SYNC PIPELINE

Spans emitted by this service:
  GET /ws/document/{id}      HTTP root span (middleware)
  └── DocSync.Bootstrap      initial document load + store init
  DocSync.Flush              one per idle flush (tag → extract → update)

Exporter chain:
  OpenTelemetry SDK → Jaeger exporter → Jaeger collector → Jaeger UI
*/

// ShutdownFunc flushes buffered spans and stops the provider
type ShutdownFunc func(context.Context) error

// NoopShutdown is used when tracing could not be initialised
func NoopShutdown(context.Context) error { return nil }

// InitJaeger installs a global tracer provider exporting to Jaeger.
// sampleRatio <= 0 or >= 1 samples every trace.
func InitJaeger(serviceName, version, jaegerEndpoint string, sampleRatio float64) (ShutdownFunc, error) {
	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if sampleRatio > 0 && sampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	log.Printf("✓ Jaeger tracing initialized: %s", jaegerEndpoint)

	return tp.Shutdown, nil
}
