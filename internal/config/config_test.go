package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(
		WithEnv(envFrom(nil)),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
	)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.TextModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.VisionModel)
	assert.Equal(t, DefaultImageModels(), cfg.ImageModels)
	assert.Equal(t, 4, cfg.MaxLogoConcurrency)
	assert.Equal(t, 10, cfg.MaxMockupConcurrency)
	assert.Equal(t, 30*time.Second, cfg.ResearchTimeout)
	assert.Equal(t, 120*time.Second, cfg.ModelAttemptTimeout)
	assert.Equal(t, 180*time.Second, cfg.MockupItemTimeout)
	assert.Equal(t, 2, cfg.SchemaRepairAttempts)
	assert.Equal(t, "references", cfg.ReferenceDir)
	assert.Equal(t, "output", cfg.OutputDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := Load(
		WithEnv(envFrom(map[string]string{
			"GEMINI_API_KEY":         "test-key",
			"MAX_LOGO_CONCURRENCY":   "2",
			"MAX_MOCKUP_CONCURRENCY": "5",
			"RESEARCH_TIMEOUT_MS":    "15000",
			"BRANDFORGE_TEXT_MODEL":  "gemini-2.0-flash",
			"BRANDFORGE_IMAGE_MODELS": "model-a, model-b",
		})),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
	)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 2, cfg.MaxLogoConcurrency)
	assert.Equal(t, 5, cfg.MaxMockupConcurrency)
	assert.Equal(t, 15*time.Second, cfg.ResearchTimeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.TextModel)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.ImageModels)
}

func TestLoad_InvalidEnvValuesIgnored(t *testing.T) {
	cfg, err := Load(
		WithEnv(envFrom(map[string]string{
			"MAX_LOGO_CONCURRENCY": "not-a-number",
			"RESEARCH_TIMEOUT_MS":  "-5",
		})),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
	)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxLogoConcurrency)
	assert.Equal(t, 30*time.Second, cfg.ResearchTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "brandforge.yaml")

	content := `
api_key: file-key
text_model: gemini-2.0-flash
max_logo_concurrency: 3
research_timeout: 10s
output_dir: /tmp/brand-out
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(
		WithEnv(envFrom(nil)),
		WithConfigFile(configPath),
	)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.TextModel)
	assert.Equal(t, 3, cfg.MaxLogoConcurrency)
	assert.Equal(t, 10*time.Second, cfg.ResearchTimeout)
	assert.Equal(t, "/tmp/brand-out", cfg.OutputDir)
	// Unset fields keep defaults
	assert.Equal(t, 10, cfg.MaxMockupConcurrency)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "brandforge.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("api_key: file-key\n"), 0644))

	cfg, err := Load(
		WithEnv(envFrom(map[string]string{"GEMINI_API_KEY": "env-key"})),
		WithConfigFile(configPath),
	)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoad_OverridesBeatEverything(t *testing.T) {
	cfg, err := Load(
		WithEnv(envFrom(map[string]string{"MAX_LOGO_CONCURRENCY": "2"})),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
		WithOverrides(func(c *Config) {
			c.MaxLogoConcurrency = 1
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxLogoConcurrency)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate()) // No API key

	cfg.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.ImageModels = nil
	require.Error(t, cfg.Validate())
}
