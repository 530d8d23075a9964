package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig configures distributed tracing
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate"`
	Exporter    string  `yaml:"exporter"` // "otlp" or "zipkin"
}

// TracerProvider wraps the OpenTelemetry tracer provider
type TracerProvider struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// NewTracerProvider creates a new tracer provider. When tracing is
// disabled every span it hands out is a no-op.
func NewTracerProvider(config TracingConfig) (*TracerProvider, error) {
	if !config.Enabled {
		return &TracerProvider{
			provider: noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = "brandforge"
	}

	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch config.Exporter {
	case "zipkin":
		exporter, err = zipkin.New(config.Endpoint)
	default:
		opts := []otlptracehttp.Option{}
		if config.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(config.Endpoint), otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(context.Background(), opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", config.Exporter, err)
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		shutdown: provider.Shutdown,
	}, nil
}

// Tracer returns a named tracer for creating spans.
func (tp *TracerProvider) Tracer(name string) trace.Tracer {
	return tp.provider.Tracer(name)
}

// Shutdown flushes pending spans and shuts down the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.shutdown(ctx)
}

// Span names for pipeline stages and model interactions.
const (
	SpanResearch    = "brandforge.research"
	SpanDirect      = "brandforge.direct"
	SpanRefine      = "brandforge.refine"
	SpanResolveTags = "brandforge.resolve_tags"
	SpanLogos       = "brandforge.generate_logos"
	SpanAssets      = "brandforge.generate_assets"
	SpanMockups     = "brandforge.composite_mockups"
	SpanSocial      = "brandforge.generate_social"
	SpanModelText   = "model.complete"
	SpanModelVision = "model.analyze"
	SpanModelImage  = "model.generate_image"
)

// Attribute keys shared across spans.
const (
	AttrRunID     = "brandforge.run_id"
	AttrStage     = "brandforge.stage"
	AttrDirection = "brandforge.direction"
	AttrModel     = "brandforge.model"
	AttrOutcome   = "brandforge.outcome"
)

// StringAttr builds a string attribute for the given key.
func StringAttr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}
