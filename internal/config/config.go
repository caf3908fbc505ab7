package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Score     ScoreConfig     `yaml:"score" mapstructure:"score"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the recommendation cache database.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnalysisConfig configures LLM-backed analysis orchestration.
type AnalysisConfig struct {
	MaxConcurrent      int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	DefaultBackoffSecs int     `yaml:"default_backoff_secs" mapstructure:"default_backoff_secs"`
	RateLimitPerSec    float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	BatchSize          int     `yaml:"batch_size" mapstructure:"batch_size"`
}

// ScoreConfig holds the supplier-wide score engine settings.
type ScoreConfig struct {
	StrongAxisThreshold float64 `yaml:"strong_axis_threshold" mapstructure:"strong_axis_threshold"`
	BonusPerAxis        float64 `yaml:"bonus_per_axis" mapstructure:"bonus_per_axis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GAMME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "gamme.db")
	v.SetDefault("store.cache_ttl_hours", 24*7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("analysis.max_concurrent", 3)
	v.SetDefault("analysis.max_retries", 2)
	v.SetDefault("analysis.default_backoff_secs", 20)
	v.SetDefault("analysis.rate_limit_per_sec", 2)
	v.SetDefault("analysis.batch_size", 25)
	v.SetDefault("score.strong_axis_threshold", 30.0)
	v.SetDefault("score.bonus_per_axis", 10.0)

	// Bind keys that have no default so AutomaticEnv can resolve them on Unmarshal.
	_ = v.BindEnv("anthropic.key")
	_ = v.BindEnv("anthropic.base_url")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the values required by a command are present. Mode is
// one of "score", "analyze" or "batch". All problems are reported at once so
// the caller can fail before any per-product work starts.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "score":
	case "analyze", "batch":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Anthropic.Model == "" {
			errs = append(errs, "anthropic.model is required")
		}
		if c.Analysis.MaxConcurrent < 1 || c.Analysis.MaxConcurrent > 10 {
			errs = append(errs, "analysis.max_concurrent must be between 1 and 10")
		}
		if c.Analysis.MaxRetries < 0 {
			errs = append(errs, "analysis.max_retries must be >= 0")
		}
		if mode == "batch" && c.Analysis.BatchSize <= 0 {
			errs = append(errs, "analysis.batch_size must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Score.StrongAxisThreshold < 0 || c.Score.BonusPerAxis < 0 {
		errs = append(errs, "score settings must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
