// ABOUTME: Centralized configuration for the shape classifier
// ABOUTME: Layers defaults, an optional YAML file, then environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/shape-classifier/internal/core"
	"github.com/harper/shape-classifier/internal/llm"
)

// Config holds all configuration for the classifier
type Config struct {
	// Model settings
	Provider       string
	OpenAIKey      string
	GeminiKey      string
	Model          string
	BaseURL        string
	ResponseFormat string
	Temperature    float64
	Timeout        time.Duration

	// Dispatch settings
	MaxRetries   int
	RetryDelay   time.Duration
	BusyPolicy   string
	PollInterval time.Duration

	Log LogConfig
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string
	Format string // json or console
	File   string // empty logs to stderr
	// Rotation settings, used only when File is set
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Duration wraps time.Duration with YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// fileConfig mirrors Config for YAML; nil fields leave defaults alone
type fileConfig struct {
	Provider       *string       `yaml:"provider"`
	OpenAIKey      *string       `yaml:"openai_api_key"`
	GeminiKey      *string       `yaml:"gemini_api_key"`
	Model          *string       `yaml:"model"`
	BaseURL        *string       `yaml:"base_url"`
	ResponseFormat *string       `yaml:"response_format"`
	Temperature    *float64      `yaml:"temperature"`
	Timeout        *Duration     `yaml:"timeout"`
	MaxRetries     *int          `yaml:"max_retries"`
	RetryDelay     *Duration     `yaml:"retry_delay"`
	BusyPolicy     *string       `yaml:"busy_policy"`
	PollInterval   *Duration     `yaml:"poll_interval"`
	Log            fileLogConfig `yaml:"log"`
}

type fileLogConfig struct {
	Level      *string `yaml:"level"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
	MaxAgeDays *int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Provider:       llm.ProviderOpenAI,
		ResponseFormat: llm.FormatText,
		Temperature:    0.1,
		Timeout:        llm.DefaultTimeout,
		MaxRetries:     0,
		RetryDelay:     2 * time.Second,
		BusyPolicy:     "ignore",
		PollInterval:   16 * time.Millisecond,
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the file named by SHAPES_CONFIG (if any) and the environment
func Load() (*Config, error) {
	return LoadFile(os.Getenv("SHAPES_CONFIG"))
}

// LoadFile applies defaults, then the YAML file at path (skipped when empty),
// then environment overrides, and validates the result
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.Provider, fc.Provider)
	setString(&c.OpenAIKey, fc.OpenAIKey)
	setString(&c.GeminiKey, fc.GeminiKey)
	setString(&c.Model, fc.Model)
	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.ResponseFormat, fc.ResponseFormat)
	setString(&c.BusyPolicy, fc.BusyPolicy)
	setString(&c.Log.Level, fc.Log.Level)
	setString(&c.Log.Format, fc.Log.Format)
	setString(&c.Log.File, fc.Log.File)
	if fc.Temperature != nil {
		c.Temperature = *fc.Temperature
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.Log.MaxSizeMB != nil {
		c.Log.MaxSizeMB = *fc.Log.MaxSizeMB
	}
	if fc.Log.MaxBackups != nil {
		c.Log.MaxBackups = *fc.Log.MaxBackups
	}
	if fc.Log.MaxAgeDays != nil {
		c.Log.MaxAgeDays = *fc.Log.MaxAgeDays
	}
	setDuration(&c.Timeout, fc.Timeout)
	setDuration(&c.RetryDelay, fc.RetryDelay)
	setDuration(&c.PollInterval, fc.PollInterval)

	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("SHAPES_PROVIDER", c.Provider)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.GeminiKey = getEnv("GEMINI_API_KEY", c.GeminiKey)
	c.Model = getEnv("SHAPES_MODEL", c.Model)
	c.BaseURL = getEnv("OPENAI_BASE_URL", c.BaseURL)
	c.ResponseFormat = getEnv("SHAPES_RESPONSE_FORMAT", c.ResponseFormat)
	c.Temperature = getEnvFloat("SHAPES_TEMPERATURE", c.Temperature)
	c.Timeout = getEnvDuration("CLASSIFY_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("SHAPES_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("SHAPES_RETRY_DELAY", c.RetryDelay)
	c.BusyPolicy = getEnv("SHAPES_BUSY_POLICY", c.BusyPolicy)
	c.PollInterval = getEnvDuration("SHAPES_POLL_INTERVAL", c.PollInterval)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

// normalize folds case and whitespace in enumerated settings
func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.ResponseFormat = strings.ToLower(strings.TrimSpace(c.ResponseFormat))
	c.BusyPolicy = strings.ToLower(strings.TrimSpace(c.BusyPolicy))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func (c *Config) Validate() error {
	switch c.Provider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("SHAPES_PROVIDER must be openai or gemini, got %q", c.Provider)
	}
	switch c.ResponseFormat {
	case llm.FormatText, llm.FormatJSONObject, llm.FormatJSONSchema:
	default:
		return fmt.Errorf("SHAPES_RESPONSE_FORMAT must be text, json_object or json_schema, got %q", c.ResponseFormat)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("SHAPES_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("CLASSIFY_TIMEOUT must not be negative, got %v", c.Timeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("SHAPES_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if _, err := core.ParseBusyPolicy(c.BusyPolicy); err != nil {
		return fmt.Errorf("SHAPES_BUSY_POLICY: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("SHAPES_POLL_INTERVAL must be positive, got %v", c.PollInterval)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// APIKey returns the key for the configured provider
func (c *Config) APIKey() string {
	if c.Provider == llm.ProviderGemini {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

// ClientConfig builds the llm client configuration
func (c *Config) ClientConfig() *llm.ClientConfig {
	return &llm.ClientConfig{
		Provider:       c.Provider,
		APIKey:         c.APIKey(),
		BaseURL:        c.BaseURL,
		Model:          c.Model,
		ResponseFormat: c.ResponseFormat,
		Temperature:    float32(c.Temperature),
		Timeout:        c.Timeout,
	}
}

// DispatcherOptions builds the dispatcher options; Validate has already
// checked the busy policy
func (c *Config) DispatcherOptions() []core.Option {
	policy, _ := core.ParseBusyPolicy(c.BusyPolicy)
	return []core.Option{
		core.WithPolicy(policy),
		core.WithRetry(c.MaxRetries, c.RetryDelay),
	}
}

func defaultModel(provider string) string {
	if provider == llm.ProviderGemini {
		return llm.DefaultGeminiModel
	}
	return llm.DefaultOpenAIModel
}

// Helper functions
func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
