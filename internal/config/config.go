// Package config provides configuration loading for the CLI. Values come
// from an optional YAML file, JOBSCOUT_* environment variables, and
// defaults, in that order of precedence from lowest to highest for env.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GeminiConfig configures the LLM provider.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api-key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// ScraperConfig configures fetching and pacing.
type ScraperConfig struct {
	BaseURL         string        `mapstructure:"base-url"`
	UseBrowser      bool          `mapstructure:"use-browser"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max-retries"`
	DelayMin        time.Duration `mapstructure:"delay-min"`
	DelayMax        time.Duration `mapstructure:"delay-max"`
	SessionLifetime int           `mapstructure:"session-lifetime"`
	MaxSessionAge   time.Duration `mapstructure:"max-session-age"`
}

// ScoringConfig configures prompt budgets and the tier table.
type ScoringConfig struct {
	ResumeMaxChars      int           `mapstructure:"resume-max-chars"`
	DescriptionMaxChars int           `mapstructure:"description-max-chars"`
	CacheTTL            time.Duration `mapstructure:"cache-ttl"`
	StrongThreshold     int           `mapstructure:"strong-threshold"`
	GoodThreshold       int           `mapstructure:"good-threshold"`
	ModerateThreshold   int           `mapstructure:"moderate-threshold"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	JSON  bool   `mapstructure:"json"`
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from the given file path (optional, YAML),
// environment variables prefixed JOBSCOUT_, and built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("scraper.base-url", "https://www.seek.com.au")
	v.SetDefault("scraper.use-browser", false)
	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("scraper.max-retries", 3)
	v.SetDefault("scraper.delay-min", 2*time.Second)
	v.SetDefault("scraper.delay-max", 4*time.Second)
	v.SetDefault("scraper.session-lifetime", 10)
	v.SetDefault("scraper.max-session-age", 30*time.Minute)
	v.SetDefault("scoring.resume-max-chars", 5000)
	v.SetDefault("scoring.description-max-chars", 2000)
	v.SetDefault("scoring.cache-ttl", 24*time.Hour)
	v.SetDefault("scoring.strong-threshold", 85)
	v.SetDefault("scoring.good-threshold", 70)
	v.SetDefault("scoring.moderate-threshold", 50)
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.file", "")

	v.SetEnvPrefix("JOBSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints the type system cannot.
func (c *Config) Validate() error {
	if c.Scraper.DelayMin <= 0 || c.Scraper.DelayMax <= 0 {
		return fmt.Errorf("config error: delays must be positive")
	}
	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("config error: 'delay-min' must not exceed 'delay-max'")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("config error: 'max-retries' must be non-negative")
	}
	if c.Scraper.SessionLifetime <= 0 {
		return fmt.Errorf("config error: 'session-lifetime' must be positive")
	}

	s := c.Scoring
	if !(s.StrongThreshold > s.GoodThreshold && s.GoodThreshold > s.ModerateThreshold) {
		return fmt.Errorf("config error: tier thresholds must be strictly decreasing (strong > good > moderate)")
	}
	if s.StrongThreshold > 100 || s.ModerateThreshold < 0 {
		return fmt.Errorf("config error: tier thresholds must lie within 0-100")
	}
	return nil
}
