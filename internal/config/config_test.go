package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "gamme.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 168, cfg.Store.CacheTTLHours)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 3, cfg.Analysis.MaxConcurrent)
	assert.Equal(t, 2, cfg.Analysis.MaxRetries)
	assert.Equal(t, 20, cfg.Analysis.DefaultBackoffSecs)
	assert.Equal(t, 25, cfg.Analysis.BatchSize)
	assert.InDelta(t, 30.0, cfg.Score.StrongAxisThreshold, 0.001)
	assert.InDelta(t, 10.0, cfg.Score.BonusPerAxis, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
analysis:
  max_concurrent: 5
score:
  strong_axis_threshold: 45
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Analysis.MaxConcurrent)
	assert.InDelta(t, 45.0, cfg.Score.StrongAxisThreshold, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 10.0, cfg.Score.BonusPerAxis, 0.001)
	assert.Equal(t, 2, cfg.Analysis.MaxRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GAMME_LOG_LEVEL", "warn")
	t.Setenv("GAMME_ANTHROPIC_KEY", "sk-ant-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant-env", cfg.Anthropic.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Analysis.MaxConcurrent = 3
	cfg.Analysis.MaxRetries = 2
	cfg.Analysis.BatchSize = 25
	cfg.Score.StrongAxisThreshold = 30
	cfg.Score.BonusPerAxis = 10
	return cfg
}

func TestValidateScore_NoCredentialsNeeded(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("score"))
}

func TestValidateAnalyze_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateBatch_ReportsEveryProblem(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.MaxConcurrent = 0
	cfg.Analysis.BatchSize = 0

	err := cfg.Validate("batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "max_concurrent must be between 1 and 10")
	assert.Contains(t, err.Error(), "batch_size must be > 0")
}

func TestValidateBatch_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateNegativeScoreSettings(t *testing.T) {
	cfg := validDefaults()
	cfg.Score.BonusPerAxis = -1

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score settings must be >= 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
