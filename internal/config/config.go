package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default model selections. The image list is an ordered fallback
// ladder; the first entry is the primary.
const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultVisionModel = "gemini-2.5-flash"
)

// DefaultImageModels returns the image generation fallback ladder.
func DefaultImageModels() []string {
	return []string{
		"gemini-3-pro-image-preview",
		"gemini-2.5-flash-image",
		"gemini-2.0-flash-preview-image-generation",
		"gemini-2.0-flash-exp-image-generation",
	}
}

// Config carries every tunable the pipeline reads. Values resolve in
// order: built-in defaults, optional brandforge.yaml, environment,
// caller overrides.
type Config struct {
	// Provider credential
	APIKey string `mapstructure:"api_key"`

	// Model selection
	TextModel   string   `mapstructure:"text_model"`
	VisionModel string   `mapstructure:"vision_model"`
	ImageModels []string `mapstructure:"image_models"`

	// Concurrency ceilings
	MaxLogoConcurrency   int `mapstructure:"max_logo_concurrency"`
	MaxMockupConcurrency int `mapstructure:"max_mockup_concurrency"`

	// Stage time budgets
	ResearchTimeout     time.Duration `mapstructure:"research_timeout"`
	ModelAttemptTimeout time.Duration `mapstructure:"model_attempt_timeout"`
	MockupItemTimeout   time.Duration `mapstructure:"mockup_item_timeout"`

	// Structured output repair attempts after the first decode failure
	SchemaRepairAttempts int `mapstructure:"schema_repair_attempts"`

	// Filesystem layout
	ReferenceDir string `mapstructure:"reference_dir"`
	MockupDir    string `mapstructure:"mockup_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
}

// EnvLookup resolves an environment variable. Injectable for tests.
type EnvLookup func(key string) (string, bool)

// DefaultEnvLookup reads the process environment.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

type loadOptions struct {
	envLookup  EnvLookup
	configFile string
	overrides  func(*Config)
}

// Option customizes Load.
type Option func(*loadOptions)

// WithEnv replaces the environment lookup used during Load.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithConfigFile forces a specific config file path instead of the
// default search locations.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithOverrides applies caller overrides after file and env resolution.
func WithOverrides(fn func(*Config)) Option {
	return func(o *loadOptions) { o.overrides = fn }
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TextModel:            DefaultTextModel,
		VisionModel:          DefaultVisionModel,
		ImageModels:          DefaultImageModels(),
		MaxLogoConcurrency:   4,
		MaxMockupConcurrency: 10,
		ResearchTimeout:      30 * time.Second,
		ModelAttemptTimeout:  120 * time.Second,
		MockupItemTimeout:    180 * time.Second,
		SchemaRepairAttempts: 2,
		ReferenceDir:         "references",
		MockupDir:            "mockups",
		OutputDir:            "output",
		CacheDir:             defaultCacheDir(),
	}
}

// Load resolves the pipeline configuration.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{envLookup: DefaultEnvLookup}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := Default()

	if err := applyFile(&cfg, options); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg, options.envLookup)

	if options.overrides != nil {
		options.overrides(&cfg)
	}

	normalize(&cfg)
	return cfg, nil
}

// applyFile merges an optional brandforge.yaml over the defaults.
// Search order: explicit path, working directory, ~/.brandforge/.
func applyFile(cfg *Config, options loadOptions) error {
	v := viper.New()
	v.SetConfigName("brandforge")
	v.SetConfigType("yaml")

	if options.configFile != "" {
		v.SetConfigFile(options.configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".brandforge"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		if options.configFile == "" {
			// Unreadable optional file in the search path is not fatal
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup EnvLookup) {
	if lookup == nil {
		lookup = DefaultEnvLookup
	}

	if value, ok := lookup("GEMINI_API_KEY"); ok && value != "" {
		cfg.APIKey = value
	}
	if value, ok := lookup("BRANDFORGE_TEXT_MODEL"); ok && value != "" {
		cfg.TextModel = value
	}
	if value, ok := lookup("BRANDFORGE_VISION_MODEL"); ok && value != "" {
		cfg.VisionModel = value
	}
	if value, ok := lookup("BRANDFORGE_IMAGE_MODELS"); ok && value != "" {
		models := splitList(value)
		if len(models) > 0 {
			cfg.ImageModels = models
		}
	}
	if n, ok := lookupInt(lookup, "MAX_LOGO_CONCURRENCY"); ok && n > 0 {
		cfg.MaxLogoConcurrency = n
	}
	if n, ok := lookupInt(lookup, "MAX_MOCKUP_CONCURRENCY"); ok && n > 0 {
		cfg.MaxMockupConcurrency = n
	}
	if n, ok := lookupInt(lookup, "RESEARCH_TIMEOUT_MS"); ok && n > 0 {
		cfg.ResearchTimeout = time.Duration(n) * time.Millisecond
	}
	if value, ok := lookup("BRANDFORGE_REFERENCE_DIR"); ok && value != "" {
		cfg.ReferenceDir = value
	}
	if value, ok := lookup("BRANDFORGE_MOCKUP_DIR"); ok && value != "" {
		cfg.MockupDir = value
	}
	if value, ok := lookup("BRANDFORGE_OUTPUT_DIR"); ok && value != "" {
		cfg.OutputDir = value
	}
	if value, ok := lookup("BRANDFORGE_CACHE_DIR"); ok && value != "" {
		cfg.CacheDir = value
	}
}

func normalize(cfg *Config) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.TextModel = strings.TrimSpace(cfg.TextModel)
	cfg.VisionModel = strings.TrimSpace(cfg.VisionModel)
	cfg.ReferenceDir = strings.TrimSpace(cfg.ReferenceDir)
	cfg.MockupDir = strings.TrimSpace(cfg.MockupDir)
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.CacheDir = strings.TrimSpace(cfg.CacheDir)

	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = DefaultVisionModel
	}

	filtered := make([]string, 0, len(cfg.ImageModels))
	for _, model := range cfg.ImageModels {
		model = strings.TrimSpace(model)
		if model != "" {
			filtered = append(filtered, model)
		}
	}
	cfg.ImageModels = filtered
	if len(cfg.ImageModels) == 0 {
		cfg.ImageModels = DefaultImageModels()
	}

	if cfg.MaxLogoConcurrency <= 0 {
		cfg.MaxLogoConcurrency = 4
	}
	if cfg.MaxMockupConcurrency <= 0 {
		cfg.MaxMockupConcurrency = 10
	}
	if cfg.ResearchTimeout <= 0 {
		cfg.ResearchTimeout = 30 * time.Second
	}
	if cfg.ModelAttemptTimeout <= 0 {
		cfg.ModelAttemptTimeout = 120 * time.Second
	}
	if cfg.MockupItemTimeout <= 0 {
		cfg.MockupItemTimeout = 180 * time.Second
	}
	if cfg.SchemaRepairAttempts < 0 {
		cfg.SchemaRepairAttempts = 2
	}
}

// Validate reports configuration problems that would fail at run time.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if c.TextModel == "" {
		return fmt.Errorf("text model is not set")
	}
	if len(c.ImageModels) == 0 {
		return fmt.Errorf("image model ladder is empty")
	}
	return nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brandforge-cache"
	}
	return filepath.Join(home, ".brandforge", "cache")
}

func lookupInt(lookup EnvLookup, key string) (int, bool) {
	value, ok := lookup(key)
	if !ok || value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
