// Package runner sequences the identity pipeline behind two phase
// entry points. Phase one turns a brief into four reviewed creative
// directions with logos; phase two builds the full asset set, mockup
// library, and social posts for the direction the user picked.
//
// Each phase runs an explicit state machine and reports progress
// through a single serialized callback. Stage failures map onto the
// machine's terminal states: cancellation ends in CANCELLED, a fatal
// stage error in FAILED, and per-item degradation in DONE_PARTIAL with
// every usable artifact kept on disk.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"brandforge/internal/assets"
	"brandforge/internal/director"
	"brandforge/internal/logging"
	"brandforge/internal/mockup"
	"brandforge/internal/model"
	"brandforge/internal/observability"
	"brandforge/internal/refindex"
	"brandforge/internal/research"
	"brandforge/internal/social"
	"brandforge/internal/styledna"
	"brandforge/internal/tags"
)

// DefaultOutputRoot holds one timestamped directory per run.
const DefaultOutputRoot = "outputs"

// runDirFormat names run directories by wall-clock start time.
const runDirFormat = "20060102_150405"

// Config wires a Runner. Only the model clients are required; nil
// Index and DNA simply disable reference guidance and style
// measurement, and the stages degrade the way they do when those
// inputs produce nothing.
type Config struct {
	Text   model.TextClient
	Vision model.VisionClient
	Image  model.ImageClient

	Index *refindex.Index
	DNA   *styledna.Extractor

	// OutputRoot is where run directories are created. Empty means
	// DefaultOutputRoot.
	OutputRoot string

	// MockupLibraryDir locates the mockup photo library and its
	// manifest.
	MockupLibraryDir string

	// ResearchTimeout caps the market-research stage. Zero means the
	// researcher's default.
	ResearchTimeout time.Duration

	// LogoConcurrency and MockupConcurrency cap the parallel render
	// pools. Zero means each stage's default.
	LogoConcurrency   int
	MockupConcurrency int

	// MockupItemTimeout caps one mockup end to end, retries included.
	// Zero means the compositor's default.
	MockupItemTimeout time.Duration

	// RepairAttempts overrides the structured-output repair budget
	// across every stage that parses model JSON.
	RepairAttempts int

	Logger  logging.Logger
	Metrics *observability.MetricsCollector
	Tracer  trace.Tracer
}

// Runner owns the pipeline stages and runs them in phase order.
type Runner struct {
	researcher *research.Researcher
	director   *director.Director
	tagger     *tags.Resolver
	assets     *assets.Generator
	mockups    *mockup.Compositor
	social     *social.Generator
	dna        *styledna.Extractor

	outputRoot string
	logger     logging.Logger
	metrics    *observability.MetricsCollector
	tracer     trace.Tracer
}

// New builds a Runner and its stage components from cfg.
func New(cfg Config) *Runner {
	logger := logging.OrNop(cfg.Logger)
	outputRoot := cfg.OutputRoot
	if outputRoot == "" {
		outputRoot = DefaultOutputRoot
	}

	researcher := research.New(cfg.Text, cfg.ResearchTimeout, logger)
	creative := director.New(cfg.Text, cfg.Vision, logger)
	tagger := tags.New(cfg.Text, logger)
	if cfg.RepairAttempts > 0 {
		researcher.SetRepairAttempts(cfg.RepairAttempts)
		creative.SetRepairAttempts(cfg.RepairAttempts)
		tagger.SetRepairAttempts(cfg.RepairAttempts)
	}

	return &Runner{
		researcher: researcher,
		director:   creative,
		tagger:     tagger,
		assets: assets.New(assets.Config{
			Image:           cfg.Image,
			Text:            cfg.Text,
			Index:           cfg.Index,
			DNA:             cfg.DNA,
			LogoConcurrency: cfg.LogoConcurrency,
			RepairAttempts:  cfg.RepairAttempts,
			Logger:          logger,
			Metrics:         cfg.Metrics,
		}),
		mockups: mockup.New(mockup.Config{
			Image:       cfg.Image,
			LibraryDir:  cfg.MockupLibraryDir,
			Concurrency: cfg.MockupConcurrency,
			ItemTimeout: cfg.MockupItemTimeout,
			Logger:      logger,
			Metrics:     cfg.Metrics,
		}),
		social: social.New(social.Config{
			Image:          cfg.Image,
			Text:           cfg.Text,
			RepairAttempts: cfg.RepairAttempts,
			Logger:         logger,
			Metrics:        cfg.Metrics,
		}),
		dna:        cfg.DNA,
		outputRoot: outputRoot,
		logger:     logger,
		metrics:    cfg.Metrics,
		tracer:     cfg.Tracer,
	}
}

// newRunContext stamps a fresh run ID into ctx and registers the run
// with the metrics collector. The returned func unregisters it.
func (r *Runner) newRunContext(ctx context.Context, runID string) (context.Context, func()) {
	ctx = observability.ContextWithRunID(ctx, runID)
	if r.metrics == nil {
		return ctx, func() {}
	}
	r.metrics.IncrementActiveRuns(ctx)
	return ctx, func() { r.metrics.DecrementActiveRuns(ctx) }
}

// startStage opens one stage's span and metric window. The returned
// finish must run on every exit path of the stage; the context it
// returns carries the span and must be the one the stage works under.
func (r *Runner) startStage(ctx context.Context, span, stage string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	var s trace.Span
	if r.tracer != nil {
		attrs = append(attrs,
			observability.StringAttr(observability.AttrRunID, observability.RunIDFromContext(ctx)),
			observability.StringAttr(observability.AttrStage, stage))
		ctx, s = r.tracer.Start(ctx, span, trace.WithAttributes(attrs...))
	}
	return ctx, func(err error) {
		r.recordStage(ctx, stage, start, err)
		if s == nil {
			return
		}
		if err != nil {
			s.RecordError(err)
			s.SetStatus(codes.Error, err.Error())
		}
		s.End()
	}
}

// recordStage reports one stage's wall-clock and outcome.
func (r *Runner) recordStage(ctx context.Context, stage string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordStage(ctx, stage, status, time.Since(start))
}

func newRunID() string {
	return uuid.NewString()
}

func optionItem(n int) string {
	return fmt.Sprintf("option_%d", n)
}
