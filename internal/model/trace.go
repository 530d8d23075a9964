package model

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bferrors "brandforge/internal/errors"
	"brandforge/internal/observability"
)

// Instrumentation wires per-call metrics and spans around model
// clients. Either field may be nil; the zero value instruments
// nothing.
type Instrumentation struct {
	Metrics *observability.MetricsCollector
	Tracer  trace.Tracer
}

func (i Instrumentation) enabled() bool {
	return i.Metrics != nil || i.Tracer != nil
}

func (i Instrumentation) startSpan(ctx context.Context, name, modelName string) (context.Context, trace.Span) {
	if i.Tracer == nil {
		return ctx, nil
	}
	return i.Tracer.Start(ctx, name, trace.WithAttributes(
		observability.StringAttr(observability.AttrModel, modelName),
		observability.StringAttr(observability.AttrStage, observability.StageFromContext(ctx)),
	))
}

func (i Instrumentation) finish(ctx context.Context, span trace.Span, modelName string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case bferrors.IsCancellation(err):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	if i.Metrics != nil {
		i.Metrics.RecordModelCall(ctx, observability.StageFromContext(ctx), modelName, outcome, time.Since(start))
	}
	if span != nil {
		span.SetAttributes(observability.StringAttr(observability.AttrOutcome, outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

type instrumentedTextClient struct {
	underlying TextClient
	inst       Instrumentation
}

// InstrumentText records a metric and span per completion call.
func InstrumentText(client TextClient, inst Instrumentation) TextClient {
	if !inst.enabled() {
		return client
	}
	return &instrumentedTextClient{underlying: client, inst: inst}
}

func (c *instrumentedTextClient) Model() string { return c.underlying.Model() }

func (c *instrumentedTextClient) Complete(ctx context.Context, req TextRequest) (*TextResponse, error) {
	start := time.Now()
	ctx, span := c.inst.startSpan(ctx, observability.SpanModelText, c.underlying.Model())
	resp, err := c.underlying.Complete(ctx, req)
	c.inst.finish(ctx, span, c.underlying.Model(), start, err)
	return resp, err
}

type instrumentedVisionClient struct {
	underlying VisionClient
	inst       Instrumentation
}

// InstrumentVision records a metric and span per analyze call.
func InstrumentVision(client VisionClient, inst Instrumentation) VisionClient {
	if !inst.enabled() {
		return client
	}
	return &instrumentedVisionClient{underlying: client, inst: inst}
}

func (c *instrumentedVisionClient) Model() string { return c.underlying.Model() }

func (c *instrumentedVisionClient) Analyze(ctx context.Context, req VisionRequest) (*TextResponse, error) {
	start := time.Now()
	ctx, span := c.inst.startSpan(ctx, observability.SpanModelVision, c.underlying.Model())
	resp, err := c.underlying.Analyze(ctx, req)
	c.inst.finish(ctx, span, c.underlying.Model(), start, err)
	return resp, err
}

type instrumentedImageClient struct {
	underlying ImageClient
	inst       Instrumentation
}

// InstrumentImage records a metric and span per generation call. Wrap
// individual ladder rungs, not the ladder, so the metric's model
// label names the rung that actually ran.
func InstrumentImage(client ImageClient, inst Instrumentation) ImageClient {
	if !inst.enabled() {
		return client
	}
	return &instrumentedImageClient{underlying: client, inst: inst}
}

func (c *instrumentedImageClient) Model() string { return c.underlying.Model() }

func (c *instrumentedImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	start := time.Now()
	ctx, span := c.inst.startSpan(ctx, observability.SpanModelImage, c.underlying.Model())
	resp, err := c.underlying.Generate(ctx, req)
	c.inst.finish(ctx, span, c.underlying.Model(), start, err)
	return resp, err
}
