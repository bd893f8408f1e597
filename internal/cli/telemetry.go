package cli

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/macropower/rulekit/pkg/version"
)

// otlpEndpointEnv enables trace export. The exporter reads its settings from
// the standard OTEL_EXPORTER_OTLP_* environment variables.
const otlpEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// SetupTracing installs a global OTLP gRPC tracer provider when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. The returned function flushes and
// stops the provider. Without an endpoint, the no-op provider is kept.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv(otlpEndpointEnv) == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cmdName),
		semconv.ServiceVersion(version.GetVersion()),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("shut down tracer provider: %w", err)
		}

		return nil
	}, nil
}
