// Package telemetry sets up OpenTelemetry tracing for calls to the agent service
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	serviceName = "agent-chat"
	// TracerName is the instrumentation scope used by this module's spans
	TracerName = "github.com/cchalm/agent-chat"
)

// Config holds the configuration for telemetry
type Config struct {
	Enabled bool
	// Endpoint is the OTLP/HTTP collector URL. When empty the exporter falls back to the standard
	// OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint       string
	ServiceVersion string
}

// Provider owns the tracer provider for the lifetime of the process
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
}

// NewProvider creates a telemetry provider and installs it as the global tracer provider. When
// telemetry is disabled the global provider is a no-op.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		zap.S().Debugf("Telemetry disabled")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{enabled: false}, nil
	}

	var opts []otlptracehttp.Option
	if config.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(config.Endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", config.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	zap.S().Infof("Telemetry enabled, exporting traces to %s", endpointOrDefault(config.Endpoint))

	return &Provider{tp: tp, enabled: true}, nil
}

// Tracer returns the tracer this module's components should create spans with
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Shutdown flushes pending spans
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	zap.S().Debugf("Shutting down telemetry provider")
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "the OTEL_EXPORTER_OTLP endpoint"
	}
	return endpoint
}
