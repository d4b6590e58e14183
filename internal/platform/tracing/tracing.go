package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"personnel/internal/platform/config"
)

const serviceName = "personnel"

// Provider hands out tracers for one invocation and flushes finished spans
// on Shutdown.
type Provider struct {
	trace.TracerProvider
	shutdown func(context.Context) error
}

// New builds the provider selected by cfg. The stdout exporter writes each
// span to w as JSON when it ends.
func New(cfg config.TracingConfig, w io.Writer, runID string) (*Provider, error) {
	switch cfg.Exporter {
	case "", config.TracingNone:
		return &Provider{
			TracerProvider: noop.NewTracerProvider(),
			shutdown:       func(context.Context) error { return nil },
		}, nil
	case config.TracingStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout span exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", serviceName),
				attribute.String("run.id", runID),
			)),
		)
		return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
