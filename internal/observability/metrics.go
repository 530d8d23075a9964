package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector manages all pipeline metrics.
type MetricsCollector struct {
	meter metric.Meter

	// Model call metrics
	modelRequests metric.Int64Counter
	modelLatency  metric.Float64Histogram

	// Stage metrics
	stageDuration metric.Float64Histogram

	// Asset metrics
	assetsWritten metric.Int64Counter

	// Run metrics
	runsActive metric.Int64UpDownCounter

	// Server for Prometheus scraping
	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// NewMetricsCollector creates a new metrics collector. A disabled config
// yields a collector whose record methods are no-ops.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("brandforge")

	modelRequests, err := meter.Int64Counter(
		"brandforge.model.requests.total",
		metric.WithDescription("Total number of model calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_requests counter: %w", err)
	}

	modelLatency, err := meter.Float64Histogram(
		"brandforge.model.latency",
		metric.WithDescription("Model call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_latency histogram: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"brandforge.stage.duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage_duration histogram: %w", err)
	}

	assetsWritten, err := meter.Int64Counter(
		"brandforge.assets.written.total",
		metric.WithDescription("Total number of asset files written"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assets_written counter: %w", err)
	}

	runsActive, err := meter.Int64UpDownCounter(
		"brandforge.runs.active",
		metric.WithDescription("Number of pipeline phases in flight"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs_active gauge: %w", err)
	}

	collector := &MetricsCollector{
		meter:         meter,
		modelRequests: modelRequests,
		modelLatency:  modelLatency,
		stageDuration: stageDuration,
		assetsWritten: assetsWritten,
		runsActive:    runsActive,
	}

	if config.PrometheusPort > 0 {
		if err := collector.StartPrometheusServer(config.PrometheusPort); err != nil {
			return nil, fmt.Errorf("failed to start prometheus server: %w", err)
		}
	}

	return collector, nil
}

// StartPrometheusServer starts the Prometheus metrics server
func (m *MetricsCollector) StartPrometheusServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())

	m.prometheusServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Printf("Prometheus metrics server listening on :%d", port)
		if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics collector
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer != nil {
		return m.prometheusServer.Shutdown(ctx)
	}
	return nil
}

// RecordModelCall records one model call trace record: which stage asked,
// which model served, how long it took, and how it ended.
func (m *MetricsCollector) RecordModelCall(ctx context.Context, stage, model, outcome string, latency time.Duration) {
	if m.modelRequests == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("stage", stage),
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	}

	m.modelRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.modelLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attrs...))
}

// RecordStage records a completed pipeline stage.
func (m *MetricsCollector) RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	if m.stageDuration == nil {
		return
	}

	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordAssetWritten counts one asset file landing on disk.
func (m *MetricsCollector) RecordAssetWritten(ctx context.Context, kind string) {
	if m.assetsWritten == nil {
		return
	}
	m.assetsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// IncrementActiveRuns increments the in-flight phase counter.
func (m *MetricsCollector) IncrementActiveRuns(ctx context.Context) {
	if m.runsActive == nil {
		return
	}
	m.runsActive.Add(ctx, 1)
}

// DecrementActiveRuns decrements the in-flight phase counter.
func (m *MetricsCollector) DecrementActiveRuns(ctx context.Context) {
	if m.runsActive == nil {
		return
	}
	m.runsActive.Add(ctx, -1)
}
