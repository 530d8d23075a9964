package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"brandforge/internal/config"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
	"brandforge/internal/refindex"
	"brandforge/internal/runner"
	"brandforge/internal/styledna"
)

// Container holds the wired pipeline components for CLI use.
type Container struct {
	Config   config.Config
	Runner   *runner.Runner
	Index    *refindex.Index
	Logger   logging.Logger
	Provider *observability.Provider
}

// buildContainer loads configuration and wires the component graph:
// observability, decorated model clients, the reference index, the
// style extractor, and the runner on top.
func buildContainer(flags *rootFlags) (*Container, error) {
	cfg, err := config.Load(config.WithConfigFile(flags.configFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obsCfg, err := observability.LoadConfig(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		obsCfg.Logging.Level = "debug"
	}
	provider, err := observability.NewProvider(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	logger := logging.Multi(
		logging.FromObservabilityWithComponent(provider.Logger, "pipeline"),
		logging.NewComponentLogger("pipeline"),
	)

	clients, err := model.NewClients(model.ClientsConfig{
		APIKey:         cfg.APIKey,
		TextModel:      cfg.TextModel,
		VisionModel:    cfg.VisionModel,
		ImageModels:    cfg.ImageModels,
		AttemptTimeout: cfg.ModelAttemptTimeout,
		Instrument: model.Instrumentation{
			Metrics: provider.Metrics,
			Tracer:  provider.Tracer.Tracer("brandforge/model"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build model clients: %w", err)
	}

	index, err := refindex.Load(cfg.ReferenceDir, styleDirFor(cfg.ReferenceDir), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference library: %w", err)
	}

	dna, err := styledna.New(clients.Vision, cfg.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build style extractor: %w", err)
	}

	pipeline := runner.New(runner.Config{
		Text:              clients.Text,
		Vision:            clients.Vision,
		Image:             clients.Image,
		Index:             index,
		DNA:               dna,
		OutputRoot:        cfg.OutputDir,
		MockupLibraryDir:  cfg.MockupDir,
		ResearchTimeout:   cfg.ResearchTimeout,
		LogoConcurrency:   cfg.MaxLogoConcurrency,
		MockupConcurrency: cfg.MaxMockupConcurrency,
		MockupItemTimeout: cfg.MockupItemTimeout,
		RepairAttempts:    cfg.SchemaRepairAttempts,
		Logger:            logger,
		Metrics:           provider.Metrics,
		Tracer:            provider.Tracer.Tracer("brandforge/pipeline"),
	})

	return &Container{
		Config:   cfg,
		Runner:   pipeline,
		Index:    index,
		Logger:   logger,
		Provider: provider,
	}, nil
}

// styleDirFor locates the styleguide directory next to the reference
// library: references/{logos,patterns} and styles/{logos,patterns} are
// siblings.
func styleDirFor(referenceDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(referenceDir)), "styles")
}

// Close flushes observability exporters.
func (c *Container) Close() {
	if c.Provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Provider.Shutdown(ctx); err != nil {
		c.Logger.Warn("observability shutdown: %v", err)
	}
}
