package model

import (
	"fmt"
	"time"

	bferrors "brandforge/internal/errors"
)

// Clients bundles the three capabilities the pipeline needs, fully
// decorated.
type Clients struct {
	Text   TextClient
	Vision VisionClient
	Image  ImageClient
}

// ClientsConfig carries the provider settings the factory needs.
// Plain values, so callers map their own config layer onto it.
type ClientsConfig struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	VisionModel    string
	ImageModels    []string
	AttemptTimeout time.Duration
	Retry          bferrors.RetryConfig
	Instrument     Instrumentation
}

// NewClients builds the production client set: a Gemini client per
// model, each wrapped with retry and instrumentation, and the image
// models stacked into a fallback ladder.
func NewClients(cfg ClientsConfig) (*Clients, error) {
	if cfg.TextModel == "" || cfg.VisionModel == "" {
		return nil, fmt.Errorf("text and vision models are required")
	}
	if len(cfg.ImageModels) == 0 {
		return nil, fmt.Errorf("at least one image model is required")
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = bferrors.DefaultRetryConfig()
	}
	gcfg := GeminiConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Timeout: cfg.AttemptTimeout}

	text := InstrumentText(
		WithRetry(NewGeminiClient(cfg.TextModel, gcfg), retry),
		cfg.Instrument)
	vision := InstrumentVision(
		WithVisionRetry(NewGeminiClient(cfg.VisionModel, gcfg), retry),
		cfg.Instrument)

	rungs := make([]ImageClient, 0, len(cfg.ImageModels))
	for _, m := range cfg.ImageModels {
		rungs = append(rungs, InstrumentImage(
			WithImageRetry(NewGeminiClient(m, gcfg), retry),
			cfg.Instrument))
	}
	ladder, err := NewImageLadder(rungs...)
	if err != nil {
		return nil, err
	}

	return &Clients{Text: text, Vision: vision, Image: ladder}, nil
}
